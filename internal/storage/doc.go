// Package storage provides the file-backed JSON document both catalog stores
// persist through: atomic replace on write, advisory flock against a second
// process opening the same file.
package storage
