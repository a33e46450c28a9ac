package repository

// Repositories bundles every repository built over one DataStore.
type Repositories struct {
	Users     *UsersRepository
	Servers   *ServersRepository
	Favorites *FavoritesRepository
	Folders   *FoldersRepository
	ApiKeys   *ApiKeyRegistryRepository
	AuditLogs *AuditLogRepository
}

func NewRepositories(store DataStore) *Repositories {
	return &Repositories{
		Users:     NewUsersRepository(store),
		Servers:   NewServersRepository(store),
		Favorites: NewFavoritesRepository(store),
		Folders:   NewFoldersRepository(store),
		ApiKeys:   NewApiKeyRegistryRepository(store),
		AuditLogs: NewAuditLogRepository(store),
	}
}
