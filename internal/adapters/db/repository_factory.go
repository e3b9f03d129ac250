package db

// RepositoryFactory creates and manages repository instances
type RepositoryFactory struct {
	conn *Connection
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// GetAuctionRepository returns an auction repository instance
func (f *RepositoryFactory) GetAuctionRepository() *AuctionRepository {
	return NewAuctionRepository(f.conn)
}

// GetBidRepository returns a bid repository instance
func (f *RepositoryFactory) GetBidRepository() *BidRepository {
	return NewBidRepository(f.conn)
}

// GetSettlementRepository returns a settlement repository instance
func (f *RepositoryFactory) GetSettlementRepository() *SettlementRepository {
	return NewSettlementRepository(f.conn)
}

// GetUserRepository returns a user repository instance
func (f *RepositoryFactory) GetUserRepository() *UserRepository {
	return NewUserRepository(f.conn)
}
