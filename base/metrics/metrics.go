package metrics

const (
	StreamBlocksEncryptedN = "aes128_stream_blocks_encrypted_total"
	StreamBlocksEncryptedH = "The total number of plaintext blocks encrypted"

	StreamBytesReadN = "aes128_stream_bytes_read_total"
	StreamBytesReadH = "The total number of input bytes read, key material included"

	StreamTruncatedBlocksN = "aes128_stream_truncated_blocks_total"
	StreamTruncatedBlocksH = "The total number of trailing partial blocks encountered"
)
