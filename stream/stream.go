// Raw block stream encryption: a 16-byte key followed by 16-byte plaintext
// blocks in, concatenated ciphertext blocks out.

package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	aesgo "example.com/aes128/aes-go"
	"example.com/aes128/key"
)

const (
	DefaultBatchBlocks = 256
)

type Stats struct {
	Blocks       int64 // blocks encrypted and written
	DroppedBytes int   // bytes of a discarded trailing partial block
}

type Encryptor struct {
	Log         *slog.Logger
	Workers     int // goroutines per batch, values < 1 mean 1
	BatchBlocks int // blocks read per batch, values < 1 mean DefaultBatchBlocks
	Policy      TruncatedPolicy
	Metrics     *Metrics
}

// Run reads the key from the first 16 bytes of r and encrypts the rest of r
// to w as EncryptStream does. Offsets in a *aesgo.TruncatedBlockError count
// from the start of r, key bytes included.
func (e *Encryptor) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	mtrcs := e.metrics()

	k, err := key.Read(r)
	if err != nil {
		return Stats{}, err
	}
	mtrcs.bytesRead.Add(float64(k.Len()))

	c, err := aesgo.NewCipher(k)
	if err != nil {
		return Stats{}, err
	}
	return e.encryptStream(ctx, mtrcs, c, r, w, int64(k.Len()))
}

// EncryptStream encrypts r to w in independent 16-byte blocks, in input
// order. A trailing partial block is handled according to e.Policy; with
// PolicyReject the run fails with an *aesgo.TruncatedBlockError whose offset
// is relative to the start of r. Output of earlier batches has already been
// written at that point and must be discarded by the caller.
func (e *Encryptor) EncryptStream(ctx context.Context, c *aesgo.Cipher, r io.Reader, w io.Writer) (Stats, error) {
	return e.encryptStream(ctx, e.metrics(), c, r, w, 0)
}

func (e *Encryptor) encryptStream(ctx context.Context, mtrcs *Metrics, c *aesgo.Cipher, r io.Reader, w io.Writer,
	off int64) (Stats, error) {
	log := e.Log
	if log == nil {
		log = slog.Default()
	}
	workers := max(e.Workers, 1)
	batch := e.BatchBlocks
	if batch < 1 {
		batch = DefaultBatchBlocks
	}

	var st Stats
	in := make([]byte, batch*aesgo.BlockSize)
	out := make([]byte, batch*aesgo.BlockSize)
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		n, err := io.ReadFull(r, in)
		eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !eof {
			return st, err
		}
		mtrcs.bytesRead.Add(float64(n))

		full := n - n%aesgo.BlockSize
		if rem := n - full; rem != 0 {
			mtrcs.truncatedBlocks.Inc()
			terr := &aesgo.TruncatedBlockError{Offset: off + int64(full), Len: rem}
			if e.Policy != PolicyDrop {
				return st, terr
			}
			log.LogAttrs(ctx, slog.LevelWarn, "dropping truncated block",
				slog.Int64("offset", terr.Offset), slog.Int("len", terr.Len))
			st.DroppedBytes += rem
		}

		if full != 0 {
			err = encryptBatch(ctx, c, workers, out[:full], in[:full])
			if err != nil {
				return st, err
			}
			_, err = w.Write(out[:full])
			if err != nil {
				return st, err
			}
			nblocks := full / aesgo.BlockSize
			st.Blocks += int64(nblocks)
			mtrcs.blocksEncrypted.Add(float64(nblocks))
			log.LogAttrs(ctx, slog.LevelDebug, "encrypted batch",
				slog.Int64("offset", off), slog.Int("blocks", nblocks))
		}
		off += int64(n)

		if eof {
			return st, nil
		}
	}
}

// metrics never writes to e, so one Encryptor can serve concurrent runs.
func (e *Encryptor) metrics() *Metrics {
	if e.Metrics == nil {
		return NewMetrics(nil)
	}
	return e.Metrics
}

// encryptBatch splits src into at most workers contiguous runs of blocks and
// encrypts them concurrently. The cipher is shared read-only; every run has
// its own state inside EncryptBlock.
func encryptBatch(ctx context.Context, c *aesgo.Cipher, workers int, dst, src []byte) error {
	n := len(src) / aesgo.BlockSize
	if workers == 1 || n < 2 {
		return c.Encrypt(dst, src)
	}

	per := (n + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += per {
		hi := min(lo+per, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return c.Encrypt(dst[lo*aesgo.BlockSize:hi*aesgo.BlockSize],
				src[lo*aesgo.BlockSize:hi*aesgo.BlockSize])
		})
	}
	return g.Wait()
}
