package registry

// Key prefixes used in both tiers.
const (
	BrandKeyPrefix       = "brand:"
	SecretIndexKeyPrefix = "secret-index:"
)

// BrandKey returns the storage key for a brand.
func BrandKey(brandID string) string { return BrandKeyPrefix + brandID }

// SecretIndexKey returns the storage key of the secret index entry.
func SecretIndexKey(secret string) string { return SecretIndexKeyPrefix + secret }
