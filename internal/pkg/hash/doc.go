// Package hash hashes account passwords (bcrypt, Argon2id) and keys short
// secrets such as reset codes (HMAC-SHA256). Only the output is ever stored.
package hash
