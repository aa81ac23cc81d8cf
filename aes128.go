// AES-128 raw block encryption tool

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/aes128/base/logbase"

	aesgo "example.com/aes128/aes-go"
	"example.com/aes128/key"
	"example.com/aes128/stream"
)

const (
	logLevelQuiet = iota
	logLevelDefault
	logLevelVerbose

	maxWorkers = 1024
)

type svcConfig struct {
	LocalMetricsAddr     string `toml:"local_metrics_address,omitempty"`
	Workers              int    `toml:"workers,omitempty"`
	BatchBlocks          int    `toml:"batch_blocks,omitempty"`
	TruncatedBlockPolicy string `toml:"truncated_block_policy,omitempty"`
}

func initLogger(logLevel int) {
	if logLevel == logLevelQuiet {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return
	}
	opts := &slog.HandlerOptions{}
	if logLevel == logLevelVerbose {
		opts.AddSource = true
		opts.Level = slog.LevelDebug
		// Sources are reported as file:line without the build path.
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if src, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
				src.File = filepath.Base(src.File)
			}
			return a
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

func showInfo() {
	bi, ok := debug.ReadBuildInfo()
	if ok {
		fmt.Print(bi.String())
	}
}

func runMonitor(cfg svcConfig) {
	if cfg.LocalMetricsAddr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(cfg.LocalMetricsAddr, mux)
		logbase.Fatal(slog.Default(), "failed to serve metrics", slog.Any("error", err))
	}()
}

func decodeConfig(raw []byte) (svcConfig, error) {
	var cfg svcConfig
	err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&cfg)
	return cfg, err
}

func loadConfig(configFile string) svcConfig {
	if configFile == "" {
		return svcConfig{}
	}
	raw, err := os.ReadFile(configFile)
	if err != nil {
		logbase.Fatal(slog.Default(), "failed to load configuration", slog.Any("error", err))
	}
	cfg, err := decodeConfig(raw)
	if err != nil {
		logbase.Fatal(slog.Default(), "failed to decode configuration", slog.Any("error", err))
	}
	return cfg
}

func workers(cfg svcConfig) int {
	if cfg.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	if cfg.Workers < 0 || cfg.Workers > maxWorkers {
		logbase.Fatal(slog.Default(), "invalid number of workers specified in config")
	}
	return cfg.Workers
}

func batchBlocks(cfg svcConfig) int {
	if cfg.BatchBlocks == 0 {
		return stream.DefaultBatchBlocks
	}
	if cfg.BatchBlocks < 0 {
		logbase.Fatal(slog.Default(), "invalid batch size specified in config")
	}
	return cfg.BatchBlocks
}

func truncatedBlockPolicy(cfg svcConfig) stream.TruncatedPolicy {
	p, err := stream.ParsePolicy(cfg.TruncatedBlockPolicy)
	if err != nil {
		logbase.Fatal(slog.Default(), "invalid truncated block policy specified in config",
			slog.Any("error", err))
	}
	return p
}

func newEncryptor(cfg svcConfig, log *slog.Logger, reg prometheus.Registerer) *stream.Encryptor {
	return &stream.Encryptor{
		Log:         log,
		Workers:     workers(cfg),
		BatchBlocks: batchBlocks(cfg),
		Policy:      truncatedBlockPolicy(cfg),
		Metrics:     stream.NewMetrics(reg),
	}
}

func runEncrypt(configFile string, numWorkers int, dropTruncated bool, keyHex string) {
	ctx := context.Background()
	log := slog.Default()

	cfg := loadConfig(configFile)
	if numWorkers != 0 {
		cfg.Workers = numWorkers
	}
	if dropTruncated {
		cfg.TruncatedBlockPolicy = stream.PolicyDrop.String()
	}

	enc := newEncryptor(cfg, log, prometheus.DefaultRegisterer)
	runMonitor(cfg)

	st, err := encryptInput(ctx, enc, keyHex, os.Stdin, os.Stdout)
	if err != nil {
		var terr *aesgo.TruncatedBlockError
		if errors.As(err, &terr) {
			logbase.Fatal(log, "input ends with a partial block",
				slog.Int64("offset", terr.Offset), slog.Int("len", terr.Len))
		}
		logbase.Fatal(log, "failed to encrypt input", slog.Any("error", err))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "encrypted input",
		slog.Int64("blocks", st.Blocks), slog.Int("dropped bytes", st.DroppedBytes))
}

// encryptInput encrypts r to w. The key is taken from keyHex if set and from
// the first 16 bytes of r otherwise.
func encryptInput(ctx context.Context, enc *stream.Encryptor, keyHex string, r io.Reader, w io.Writer) (
	stream.Stats, error) {
	if keyHex == "" {
		return enc.Run(ctx, r, w)
	}
	k, err := key.Parse(keyHex)
	if err != nil {
		return stream.Stats{}, err
	}
	c, err := aesgo.NewCipher(k)
	if err != nil {
		return stream.Stats{}, err
	}
	return enc.EncryptStream(ctx, c, r, w)
}

func runKeygen(w io.Writer, hexOutput bool) error {
	k := key.Bit128()
	if hexOutput {
		_, err := fmt.Fprintln(w, hex.EncodeToString(k.GetBytes()))
		return err
	}
	_, err := w.Write(k.GetBytes())
	return err
}

func runShowSBox(w io.Writer) error {
	s := aesgo.NewSBox()
	for i := 0; i < len(s); i += 16 {
		_, err := fmt.Fprintf(w, "%02x: % x\n", i, s[i:i+16])
		if err != nil {
			return err
		}
	}
	return nil
}

type knownAnswer struct {
	name       string
	key        string
	plaintext  string
	ciphertext string
}

var knownAnswers = []knownAnswer{
	{
		name:       "FIPS-197 Appendix C.1",
		key:        "000102030405060708090a0b0c0d0e0f",
		plaintext:  "00112233445566778899aabbccddeeff",
		ciphertext: "69c4e0d86a7b0430d8cdb78070b4c55a",
	},
	{
		name:       "FIPS-197 Appendix B",
		key:        "2b7e151628aed2a6abf7158809cf4f3c",
		plaintext:  "3243f6a8885a308d313198a2e0370734",
		ciphertext: "3925841d02dc09fbdc118597196a0b32",
	},
	{
		name:       "zero key, zero block",
		key:        "00000000000000000000000000000000",
		plaintext:  "00000000000000000000000000000000",
		ciphertext: "66e94bd4ef8a2c3b884cfa59ca342b2e",
	},
}

func checkKnownAnswer(ka knownAnswer) error {
	k, err := key.Parse(ka.key)
	if err != nil {
		return err
	}
	c, err := aesgo.NewCipher(k)
	if err != nil {
		return err
	}
	pt, err := hex.DecodeString(ka.plaintext)
	if err != nil {
		return err
	}
	ct := make([]byte, len(pt))
	err = c.Encrypt(ct, pt)
	if err != nil {
		return err
	}
	if got := hex.EncodeToString(ct); got != ka.ciphertext {
		return fmt.Errorf("%s: got %s, want %s", ka.name, got, ka.ciphertext)
	}
	return nil
}

func runSelfTest(log *slog.Logger) error {
	var errs []error
	for _, ka := range knownAnswers {
		err := checkKnownAnswer(ka)
		if err != nil {
			log.LogAttrs(context.Background(), slog.LevelError, "known answer test failed",
				slog.String("name", ka.name), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		log.LogAttrs(context.Background(), slog.LevelInfo, "known answer test passed",
			slog.String("name", ka.name))
	}
	return errors.Join(errs...)
}

func exitWithUsage() {
	fmt.Println("usage: aes128 <command> [flags]")
	fmt.Println()
	fmt.Println("  info                                  show build information")
	fmt.Println("  encrypt [-config file] [-workers n]")
	fmt.Println("          [-drop-truncated] [-key hex]  encrypt stdin to stdout")
	fmt.Println("  keygen [-hex]                         write a random 128-bit key")
	fmt.Println("  sbox                                  print the generated S-box")
	fmt.Println("  selftest                              run known answer tests")
	os.Exit(1)
}

func main() {
	var (
		quiet         bool
		verbose       bool
		configFile    string
		numWorkers    int
		dropTruncated bool
		keyHex        string
		hexOutput     bool
	)

	infoFlags := flag.NewFlagSet("info", flag.ExitOnError)
	encryptFlags := flag.NewFlagSet("encrypt", flag.ExitOnError)
	keygenFlags := flag.NewFlagSet("keygen", flag.ExitOnError)
	sboxFlags := flag.NewFlagSet("sbox", flag.ExitOnError)
	selftestFlags := flag.NewFlagSet("selftest", flag.ExitOnError)

	encryptFlags.BoolVar(&quiet, "quiet", false, "Disable logging")
	encryptFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	encryptFlags.StringVar(&configFile, "config", "", "Config file")
	encryptFlags.IntVar(&numWorkers, "workers", 0, "Number of encryption workers")
	encryptFlags.BoolVar(&dropTruncated, "drop-truncated", false, "Drop a trailing partial block instead of failing")
	encryptFlags.StringVar(&keyHex, "key", "", "Key as 32 hex digits, read from input if empty")

	keygenFlags.BoolVar(&hexOutput, "hex", false, "Write the key as hex")

	selftestFlags.BoolVar(&quiet, "quiet", false, "Disable logging")
	selftestFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")

	logLevel := func() int {
		if quiet && verbose {
			exitWithUsage()
		}
		if quiet {
			return logLevelQuiet
		}
		if verbose {
			return logLevelVerbose
		}
		return logLevelDefault
	}

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	switch os.Args[1] {
	case infoFlags.Name():
		err := infoFlags.Parse(os.Args[2:])
		if err != nil || infoFlags.NArg() != 0 {
			exitWithUsage()
		}
		showInfo()
	case encryptFlags.Name():
		err := encryptFlags.Parse(os.Args[2:])
		if err != nil || encryptFlags.NArg() != 0 {
			exitWithUsage()
		}
		if numWorkers < 0 {
			exitWithUsage()
		}
		initLogger(logLevel())
		runEncrypt(configFile, numWorkers, dropTruncated, keyHex)
	case keygenFlags.Name():
		err := keygenFlags.Parse(os.Args[2:])
		if err != nil || keygenFlags.NArg() != 0 {
			exitWithUsage()
		}
		err = runKeygen(os.Stdout, hexOutput)
		if err != nil {
			logbase.Fatal(slog.Default(), "failed to write key", slog.Any("error", err))
		}
	case sboxFlags.Name():
		err := sboxFlags.Parse(os.Args[2:])
		if err != nil || sboxFlags.NArg() != 0 {
			exitWithUsage()
		}
		err = runShowSBox(os.Stdout)
		if err != nil {
			logbase.Fatal(slog.Default(), "failed to write S-box", slog.Any("error", err))
		}
	case selftestFlags.Name():
		err := selftestFlags.Parse(os.Args[2:])
		if err != nil || selftestFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(logLevel())
		err = runSelfTest(slog.Default())
		if err != nil {
			os.Exit(1)
		}
	default:
		exitWithUsage()
	}
}
