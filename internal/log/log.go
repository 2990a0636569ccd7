package log

const (
	// FldFile is the name of the log field for storing file name information
	FldFile = "file"
	// FldPath is the name of the log field for storing path name information
	FldPath = "path"
	// FldTransport is the name of the log field for storing a transport name
	FldTransport = "transport"
	// FldSession is the name of the log field for storing the session ID
	FldSession = "session"
	// FldUser is the name of the log field for storing the ID of the currently active user
	FldUser = "user"
	// FldVersion is the version number of the application
	FldVersion = "ver"
	// FldIP is the IP address used in the log entry
	FldIP = "ip"
	// FldID is the ID of an entity used in the log entry
	FldID = "id"
	// FldEvent is the ID of the event an operation works on
	FldEvent = "event"
	// FldSong is the ID of the song an operation works on
	FldSong = "song"
	// FldSearch is a search term used in a search
	FldSearch = "search"
	// FldPage is the requested page number in a paginated listing
	FldPage = "page"
	// FldLimit is the requested result limit in a paginated listing
	FldLimit = "limit"
	// FldCorrelation is the correlation ID of the current request
	FldCorrelation = "correlationId"
	// FldCacheKey is the cache key used in a cache operation
	FldCacheKey = "cacheKey"
)
