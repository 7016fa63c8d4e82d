package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Transactions() TransactionRepository
	Disputes() DisputeRepository
	Purchases() PurchaseRepository
	Levels() LevelRepository
	Consistency() ConsistencyRepository
}
