package provision

import (
	"github.com/rs/zerolog"
)

const unknownSizeStep = 256 << 20

// progressWriter counts bytes and logs every 5% of total, or every 256 MiB
// when the total is unknown.
type progressWriter struct {
	log     zerolog.Logger
	total   int64
	written int64
	next    int64
}

func newProgressWriter(log zerolog.Logger, total int64) *progressWriter {
	p := &progressWriter{log: log, total: total}
	p.next = p.step()
	return p
}

func (p *progressWriter) step() int64 {
	if p.total > 0 {
		return max(1, p.total/20)
	}
	return unknownSizeStep
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n := len(b)
	p.written += int64(n)
	downloadBytesTotal.Add(float64(n))
	if p.written < p.next {
		return n, nil
	}
	ev := p.log.Info().Int64("bytes", p.written)
	if p.total > 0 {
		ev = ev.Int64("total", p.total).Int64("percent", p.written*100/p.total)
	}
	ev.Msg("download progress")
	for p.next <= p.written {
		p.next += p.step()
	}
	return n, nil
}
