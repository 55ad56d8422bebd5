package swcache

// Strategy is the fetch strategy chosen for a request.
type Strategy int

const (
	NetworkFirst Strategy = iota
	CacheFirst
)

func (s Strategy) String() string {
	if s == CacheFirst {
		return "cache-first"
	}
	return "network-first"
}

// Source says where a served response came from.
type Source string

const (
	SourceNetwork  Source = "network"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback" // synthesized 503/404
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; wrap slow sinks with hooks/async.
// Served and StoreFailed are called on the request path.
type Hooks interface {
	// An intercepted request was answered.
	Served(class Class, strategy Strategy, source Source)

	// A 200 snapshot could not be written (backend error or pressure rejection).
	StoreFailed(partition string, err error)

	// A stored entry was deleted on read.
	// reason ∈ {"corrupt", "decode"}
	SelfHeal(partition, key, reason string)

	// Install of version failed; the version will not activate.
	PrecacheFailed(version string, err error)

	// A superseded or cleared partition could not be deleted (non-fatal).
	PartitionDeleteFailed(name string, err error)

	// version took control.
	Activated(version string)

	// version finished installing while another version controls the app.
	// Fired at most once per version.
	UpdateAvailable(version string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Served(Class, Strategy, Source)       {}
func (NopHooks) StoreFailed(string, error)           {}
func (NopHooks) SelfHeal(string, string, string)     {}
func (NopHooks) PrecacheFailed(string, error)        {}
func (NopHooks) PartitionDeleteFailed(string, error) {}
func (NopHooks) Activated(string)                    {}
func (NopHooks) UpdateAvailable(string)              {}
