package pkg

import "golang.org/x/crypto/bcrypt"

// bcryptCost sits above the library default, logins are rare enough
// that the extra hashing time does not matter.
const bcryptCost = 14

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return BytesToString(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
