package ports

// TokenCipher encrypts and decrypts stored access tokens
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(packed string) (string, error)
}
