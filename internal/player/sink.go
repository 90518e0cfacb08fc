package player

// sink is the live destination of decoded audio. The worker sends chunks
// of frames; the output device pulls them through Stream.
//
// Stream never blocks the audio callback: when the worker falls behind it
// plays silence, and once the worker closes the sink and every queued
// chunk has been played it reports the end of the stream.
type sink struct {
	chunks chan [][2]float64
	cur    [][2]float64
}

func newSink(depth int) *sink {
	return &sink{chunks: make(chan [][2]float64, depth)}
}

func (s *sink) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		if len(s.cur) == 0 {
			select {
			case chunk, open := <-s.chunks:
				if !open {
					return n, n > 0
				}
				s.cur = chunk
				continue
			default:
				// Underrun.
				clear(samples[n:])
				return len(samples), true
			}
		}
		k := copy(samples[n:], s.cur)
		s.cur = s.cur[k:]
		n += k
	}
	return n, true
}

func (s *sink) Err() error { return nil }

// close marks the end of the stream. Only the worker calls it.
func (s *sink) close() { close(s.chunks) }
