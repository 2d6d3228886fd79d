package repository

// Entities lists every table model, for AutoMigrate in tests and tooling.
func Entities() []any {
	return []any{
		&UserEntity{},
		&ScanEntity{},
		&TransactionEntity{},
		&TotalEntity{},
	}
}
