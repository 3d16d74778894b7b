package streamset

const (
	defaultBufferSize = 128
	defaultNumBuffers = 3
)

// Option is a functional option for configuring a Dataset.
type Option func(*datasetConfig)

type datasetConfig struct {
	bufferSize int      // rows fetched per Slice call
	numBuffers int      // prefetched buffers held ahead of the consumer
	features   []string // nil means no projection
}

func defaultDatasetConfig() *datasetConfig {
	return &datasetConfig{
		bufferSize: defaultBufferSize,
		numBuffers: defaultNumBuffers,
	}
}

// WithBufferSize sets how many rows each provider Slice call requests.
// Default is 128.
func WithBufferSize(rows int) Option {
	return func(c *datasetConfig) {
		c.bufferSize = rows
	}
}

// WithNumBuffers sets how many fetched buffers the prefetch worker may hold
// ahead of the consumer. Memory use is bounded by numBuffers × bufferSize
// rows plus the buffer currently being consumed. Default is 3.
func WithNumBuffers(n int) Option {
	return func(c *datasetConfig) {
		c.numBuffers = n
	}
}

// WithFeatures restricts every delivered row to the named columns and sets
// the dataset width to len(features). The slice is copied, so the caller can
// reuse it after this call. A projected column missing from a row surfaces
// as an error at delivery time.
func WithFeatures(features []string) Option {
	return func(c *datasetConfig) {
		c.features = append([]string(nil), features...) // Copy slice
	}
}
