package domain

// DefaultKeyPrefix namespaces keys in a shared Redis/Valkey instance when config sets none.
const DefaultKeyPrefix = "lostfound:"
