package constant

const (
	// RecordPageSize is the number of records returned by the list endpoint.
	RecordPageSize = 10

	UserPageSizeDefault = 20
	UserPageSizeMax     = 100

	MinOutputLength = 10

	ActivityTopic = "user_activity"
)

// Domain event types published on NATS and pushed over the websocket.
const (
	EventRecordChanged     = "record_changed"
	EventRecordModerated   = "record_moderated"
	EventCollectionUpdated = "collection_updated"
	EventUserBlocked       = "user_blocked"
)

// Record actions carried by record_changed events.
const (
	RecordActionCreated   = "created"
	RecordActionUpdated   = "updated"
	RecordActionDeleted   = "deleted"
	RecordActionMoved     = "moved"
	RecordActionImported  = "imported"
	RecordActionModerated = "moderated"
)

// Features a record can be required to have filled in.
const (
	FeaturePrompt   = "prompt"
	FeatureResponse = "response"
	FeatureInput    = "input"
	FeatureHistory  = "history"
	FeatureOutput   = "output"
)

const StatusFilterAll = "all"
