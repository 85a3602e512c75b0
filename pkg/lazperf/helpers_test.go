package lazperf

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/engine"
	"github.com/ajitpratap0/lazperf/pkg/laszip"
)

// referencePoints generates a deterministic buffer of n Point+GpsTime+Rgb
// records shaped like an airborne scan: slowly drifting coordinates,
// increasing GPS time, and correlated colors.
func referencePoints(n int) []byte {
	const pointSize = 34
	rng := rand.New(rand.NewSource(1065))
	buf := make([]byte, n*pointSize)

	x, y, z := int32(63700000), int32(84900000), int32(4300)
	gps := 245370.4173
	for i := 0; i < n; i++ {
		p := buf[i*pointSize : (i+1)*pointSize]
		x += int32(rng.Intn(200) - 50)
		y += int32(rng.Intn(30) - 15)
		z += int32(rng.Intn(60) - 30)
		binary.LittleEndian.PutUint32(p[0:], uint32(x))
		binary.LittleEndian.PutUint32(p[4:], uint32(y))
		binary.LittleEndian.PutUint32(p[8:], uint32(z))
		binary.LittleEndian.PutUint16(p[12:], uint16(rng.Intn(256)))
		p[14] = byte(1 | 1<<3)       // return 1 of 1
		p[15] = byte(1 + rng.Intn(2)) // class
		p[16] = byte(int8(rng.Intn(30) - 15))
		p[17] = 0
		binary.LittleEndian.PutUint16(p[18:], 7326)

		gps += 0.00001 * float64(1+rng.Intn(5))
		binary.LittleEndian.PutUint64(p[20:], math.Float64bits(gps))

		c := uint16(rng.Intn(64) << 8)
		binary.LittleEndian.PutUint16(p[28:], c)
		binary.LittleEndian.PutUint16(p[30:], c+256)
		binary.LittleEndian.PutUint16(p[32:], c)
	}
	return buf
}

func referenceSchema() *RecordSchema {
	return NewRecordSchema().PushPoint().PushGpsTime().PushRgb()
}

// compressAll drives c through the full drain protocol and returns the
// stream and the VLR payload.
func compressAll(t *testing.T, c *Compressor, points []byte) (stream, vlr []byte) {
	t.Helper()
	size := c.PointSize()
	for off := 0; off < len(points); off += size {
		n, err := c.CompressOne(points[off : off+size])
		require.NoError(t, err)
		if n > 0 {
			stream = append(stream, c.InternalData()...)
			c.ResetSize()
		}
	}

	n, err := c.Done()
	require.NoError(t, err)
	if n > 0 {
		stream = append(stream, c.InternalData()...)
		c.ResetSize()
	}

	n, err = c.WriteChunkTable()
	require.NoError(t, err)
	require.NotZero(t, n)
	stream = append(stream, c.InternalData()...)
	c.ResetSize()

	vlr, err = c.LaszipVlrData()
	require.NoError(t, err)
	return stream, vlr
}

// countingFactory wraps the default engine and records ownership calls.
type countingFactory struct {
	encoders []*countingEncoder
	decoders int
	closes   int
	failNew  bool
}

type countingEncoder struct {
	engine.Encoder
	factory  *countingFactory
	vlrCalls int
	releases int
}

func (f *countingFactory) NewEncoder(cfg engine.EncoderConfig) (engine.Encoder, error) {
	if f.failNew {
		return nil, engine.ErrClosed
	}
	enc, err := engine.Default.NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	ce := &countingEncoder{Encoder: enc, factory: f}
	f.encoders = append(f.encoders, ce)
	return ce, nil
}

func (f *countingFactory) NewDecoder(compressed []byte, vlr *laszip.Vlr, logger *zap.Logger) (engine.Decoder, error) {
	if f.failNew {
		return nil, engine.ErrClosed
	}
	dec, err := engine.Default.NewDecoder(compressed, vlr, logger)
	if err != nil {
		return nil, err
	}
	f.decoders++
	return &countingDecoder{Decoder: dec, factory: f}, nil
}

type countingDecoder struct {
	engine.Decoder
	factory *countingFactory
}

func (d *countingDecoder) Close() error {
	d.factory.closes++
	return d.Decoder.Close()
}

func (e *countingEncoder) VlrData() ([]byte, error) {
	e.vlrCalls++
	return e.Encoder.VlrData()
}

func (e *countingEncoder) ReleaseBuffer(buf []byte) {
	e.releases++
	e.Encoder.ReleaseBuffer(buf)
}

func (e *countingEncoder) Close() error {
	e.factory.closes++
	return e.Encoder.Close()
}
