package main

import (
	"bytes"
	"context"
	"crypto/aes"
	"encoding/hex"
	"log/slog"
	"strings"
	"testing"

	aesgo "example.com/aes128/aes-go"
	"example.com/aes128/key"
	"example.com/aes128/stream"
)

func TestEncryptStd(t *testing.T) {
	k := key.Bit128()

	plaintext := []byte("Let's test if this is working!!!")

	// encrypt with our implementation and with std, block by block
	cfg := svcConfig{Workers: 2, BatchBlocks: 1}
	enc := newEncryptor(cfg, slog.New(slog.DiscardHandler), nil)

	var out bytes.Buffer
	in := append(append([]byte{}, k.GetBytes()...), plaintext...)
	st, err := enc.Run(context.Background(), bytes.NewReader(in), &out)
	if err != nil {
		t.Errorf("Error encrypting: %s", err)
	}
	if st.Blocks != 2 {
		t.Errorf("Encrypted %d blocks, Expected: 2", st.Blocks)
	}

	encrypted, err := stdEncrypt(plaintext, k.GetBytes())
	if err != nil {
		t.Errorf("Error encrypting: %s", err)
	}

	if !bytes.Equal(out.Bytes(), encrypted) {
		t.Errorf("Ciphertext does not match std. Got: %x, Expected: %x", out.Bytes(), encrypted)
	}
}

func TestEncryptInputKeySources(t *testing.T) {
	k := key.Bit128()
	keyHex := hex.EncodeToString(k.GetBytes())
	plaintext := []byte("0123456789abcdefFEDCBA9876543210")

	want, err := stdEncrypt(plaintext, k.GetBytes())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		keyHex string
		input  []byte
	}{
		{
			name:  "Key in input",
			input: append(append([]byte{}, k.GetBytes()...), plaintext...),
		},
		{
			name:   "Key from flag",
			keyHex: keyHex,
			input:  plaintext,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			enc := newEncryptor(svcConfig{Workers: 2}, slog.New(slog.DiscardHandler), nil)
			var out bytes.Buffer
			st, err := encryptInput(context.Background(), enc, test.keyHex, bytes.NewReader(test.input), &out)
			if err != nil {
				t.Fatalf("Error encrypting: %s", err)
			}
			if st.Blocks != 2 {
				t.Errorf("Encrypted %d blocks, Expected: 2", st.Blocks)
			}
			if !bytes.Equal(out.Bytes(), want) {
				t.Errorf("Got: %x, Expected: %x", out.Bytes(), want)
			}
		})
	}
}

func TestEncryptInputBadKey(t *testing.T) {
	enc := newEncryptor(svcConfig{}, slog.New(slog.DiscardHandler), nil)
	_, err := encryptInput(context.Background(), enc, "0011", bytes.NewReader(make([]byte, 16)), &bytes.Buffer{})
	if err == nil {
		t.Error("short hex key accepted")
	}
}

func TestKnownAnswers(t *testing.T) {
	for _, ka := range knownAnswers {
		t.Run(ka.name, func(t *testing.T) {
			if err := checkKnownAnswer(ka); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSelfTest(t *testing.T) {
	if err := runSelfTest(slog.New(slog.DiscardHandler)); err != nil {
		t.Error(err)
	}
}

func TestCheckKnownAnswerMismatch(t *testing.T) {
	ka := knownAnswers[0]
	ka.ciphertext = strings.Repeat("00", aesgo.BlockSize)
	if err := checkKnownAnswer(ka); err == nil {
		t.Error("mismatching ciphertext accepted")
	}
}

func TestDecodeConfig(t *testing.T) {
	raw := []byte(`
workers = 4
batch_blocks = 64
truncated_block_policy = "drop"
local_metrics_address = "127.0.0.1:9100"
`)
	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatal(err)
	}
	want := svcConfig{
		LocalMetricsAddr:     "127.0.0.1:9100",
		Workers:              4,
		BatchBlocks:          64,
		TruncatedBlockPolicy: "drop",
	}
	if cfg != want {
		t.Errorf("Got: %+v, Expected: %+v", cfg, want)
	}
	if p := truncatedBlockPolicy(cfg); p != stream.PolicyDrop {
		t.Errorf("Got: %v, Expected: %v", p, stream.PolicyDrop)
	}
	if n := workers(cfg); n != 4 {
		t.Errorf("Got: %d workers, Expected: 4", n)
	}
	if n := batchBlocks(cfg); n != 64 {
		t.Errorf("Got: batch of %d, Expected: 64", n)
	}
}

func TestDecodeConfigUnknownField(t *testing.T) {
	_, err := decodeConfig([]byte(`mode = "cbc"`))
	if err == nil {
		t.Error("unknown field accepted")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg svcConfig
	if n := batchBlocks(cfg); n != stream.DefaultBatchBlocks {
		t.Errorf("Got: batch of %d, Expected: %d", n, stream.DefaultBatchBlocks)
	}
	if n := workers(cfg); n < 1 {
		t.Errorf("Got: %d workers, Expected: at least 1", n)
	}
	if p := truncatedBlockPolicy(cfg); p != stream.PolicyReject {
		t.Errorf("Got: %v, Expected: %v", p, stream.PolicyReject)
	}
}

func TestShowSBox(t *testing.T) {
	var out bytes.Buffer
	if err := runShowSBox(&out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 16 {
		t.Fatalf("Got: %d lines, Expected: 16", len(lines))
	}
	if want := "00: 63 7c 77 7b f2 6b 6f c5 30 01 67 2b fe d7 ab 76"; lines[0] != want {
		t.Errorf("Got: %q, Expected: %q", lines[0], want)
	}
	if want := "f0: 8c a1 89 0d bf e6 42 68 41 99 2d 0f b0 54 bb 16"; lines[15] != want {
		t.Errorf("Got: %q, Expected: %q", lines[15], want)
	}
}

func TestKeygen(t *testing.T) {
	var raw bytes.Buffer
	if err := runKeygen(&raw, false); err != nil {
		t.Fatal(err)
	}
	if raw.Len() != key.Size {
		t.Errorf("Got: %d bytes, Expected: %d", raw.Len(), key.Size)
	}

	var hexOut bytes.Buffer
	if err := runKeygen(&hexOut, true); err != nil {
		t.Fatal(err)
	}
	if _, err := key.Parse(strings.TrimSpace(hexOut.String())); err != nil {
		t.Errorf("Error parsing generated key: %s", err)
	}
}

// Function to stdEncrypt plaintext using AES with independent blocks
func stdEncrypt(plainText, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	cipherText := make([]byte, len(plainText))
	for i := 0; i+aes.BlockSize <= len(plainText); i += aes.BlockSize {
		block.Encrypt(cipherText[i:i+aes.BlockSize], plainText[i:i+aes.BlockSize])
	}

	return cipherText, nil
}

func TestInitLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	tests := []struct {
		level int
		debug bool
		info  bool
	}{
		{level: logLevelQuiet, debug: false, info: false},
		{level: logLevelDefault, debug: false, info: true},
		{level: logLevelVerbose, debug: true, info: true},
	}

	for _, test := range tests {
		initLogger(test.level)
		ctx := context.Background()
		if got := slog.Default().Enabled(ctx, slog.LevelDebug); got != test.debug {
			t.Errorf("level %d: debug enabled = %v, Expected: %v", test.level, got, test.debug)
		}
		if got := slog.Default().Enabled(ctx, slog.LevelInfo); got != test.info {
			t.Errorf("level %d: info enabled = %v, Expected: %v", test.level, got, test.info)
		}
	}
}
