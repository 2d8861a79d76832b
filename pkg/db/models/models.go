package models

// All lists every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Ingredient{},
		&UnitAlias{},
		&Product{},
		&RecipeItem{},
		&IngredientHistory{},
		&Customer{},
		&Transaction{},
		&TransactionItem{},
		&OutboxEvent{},
	}
}
