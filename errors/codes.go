package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Media acquisition errors.
const (
	ErrCodeFetchNetwork      ErrorCode = "FETCH_NETWORK"
	ErrCodeFetchUnsupported  ErrorCode = "FETCH_UNSUPPORTED"
	ErrCodeFetchAccessDenied ErrorCode = "FETCH_ACCESS_DENIED"
	ErrCodeFetchTooLarge     ErrorCode = "FETCH_TOO_LARGE"
)

// Audio processing errors.
const (
	ErrCodeConversionFailed ErrorCode = "CONVERSION_FAILED"
	ErrCodeChunkingFailed   ErrorCode = "CHUNKING_FAILED"
)

// Transcription provider errors.
const (
	ErrCodeProviderAuth            ErrorCode = "PROVIDER_AUTH"
	ErrCodeProviderRateLimited     ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderTimeout         ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderPayloadTooLarge ErrorCode = "PROVIDER_PAYLOAD_TOO_LARGE"
	ErrCodeProviderUnavailable     ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderInvalid         ErrorCode = "PROVIDER_INVALID_RESPONSE"
)

// Storage and general errors.
const (
	ErrCodePersistence  ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Category groups error codes into the stage that produced them.
type Category string

const (
	CategoryFetch       Category = "fetch"
	CategoryConversion  Category = "conversion"
	CategoryChunking    Category = "chunking"
	CategoryProvider    Category = "provider"
	CategoryPersistence Category = "persistence"
	CategoryInternal    Category = "internal"
)

var codeCategories = map[ErrorCode]Category{
	ErrCodeFetchNetwork:            CategoryFetch,
	ErrCodeFetchUnsupported:        CategoryFetch,
	ErrCodeFetchAccessDenied:       CategoryFetch,
	ErrCodeFetchTooLarge:           CategoryFetch,
	ErrCodeConversionFailed:        CategoryConversion,
	ErrCodeChunkingFailed:          CategoryChunking,
	ErrCodeProviderAuth:            CategoryProvider,
	ErrCodeProviderRateLimited:     CategoryProvider,
	ErrCodeProviderTimeout:         CategoryProvider,
	ErrCodeProviderPayloadTooLarge: CategoryProvider,
	ErrCodeProviderUnavailable:     CategoryProvider,
	ErrCodeProviderInvalid:         CategoryProvider,
	ErrCodePersistence:             CategoryPersistence,
	ErrCodeNotFound:                CategoryPersistence,
	ErrCodeConflict:                CategoryPersistence,
}

// Category returns the stage category of the code.
func (c ErrorCode) Category() Category {
	if cat, ok := codeCategories[c]; ok {
		return cat
	}
	return CategoryInternal
}

// Transient codes describe conditions that may clear on their own. The
// worker never retries an entry; the flag feeds outage detection only.
var transientCodes = map[ErrorCode]bool{
	ErrCodeFetchNetwork:        true,
	ErrCodeProviderRateLimited: true,
	ErrCodeProviderTimeout:     true,
	ErrCodeProviderUnavailable: true,
	ErrCodePersistence:         true,
}

// IsTransientCode reports whether the code describes a transient condition.
func IsTransientCode(code ErrorCode) bool {
	return transientCodes[code]
}
