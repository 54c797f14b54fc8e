package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

type HashAlgorithm string

const (
	// Accounts imported from the old site still carry these.
	Django_PBKDF2SHA256 HashAlgorithm = "pbkdf2_sha256"
	Argon2id            HashAlgorithm = "argon2id"
)

const saltLength = 16
const keyLength = 64

type HashedPassword struct {
	Algorithm  HashAlgorithm
	AlgoConfig string // hash parameters, e.g. work factor

	// Stored exactly as they go into the database (base64 or whatever the
	// algorithm uses).
	Salt string
	Hash string
}

func ParsePasswordString(s string) (HashedPassword, error) {
	pieces := strings.SplitN(s, "$", 4)
	if len(pieces) < 4 {
		return HashedPassword{}, oops.New(nil, "unrecognized password string format")
	}

	return HashedPassword{
		Algorithm:  HashAlgorithm(pieces[0]),
		AlgoConfig: pieces[1],
		Salt:       pieces[2],
		Hash:       pieces[3],
	}, nil
}

func (p HashedPassword) String() string {
	return fmt.Sprintf("%s$%s$%s$%s", p.Algorithm, p.AlgoConfig, p.Salt, p.Hash)
}

func (p HashedPassword) IsOutdated() bool {
	return p.Algorithm != Argon2id
}

type Argon2idConfig struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
}

func ParseArgon2idConfig(cfg string) (Argon2idConfig, error) {
	values := make(map[string]uint64)
	for _, part := range strings.Split(cfg, ",") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return Argon2idConfig{}, oops.New(nil, "malformed Argon2id config part '%s'", part)
		}
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return Argon2idConfig{}, oops.New(err, "failed to parse '%s' in Argon2id config", key)
		}
		values[key] = n
	}

	for _, key := range []string{"t", "m", "p", "l"} {
		if _, ok := values[key]; !ok {
			return Argon2idConfig{}, oops.New(nil, "Argon2id config is missing '%s'", key)
		}
	}
	if values["p"] > 255 {
		return Argon2idConfig{}, oops.New(nil, "Argon2id thread count too large")
	}

	return Argon2idConfig{
		Time:      uint32(values["t"]),
		Memory:    uint32(values["m"]),
		Threads:   uint8(values["p"]),
		KeyLength: uint32(values["l"]),
	}, nil
}

func (c Argon2idConfig) String() string {
	return fmt.Sprintf("t=%v,m=%v,p=%v,l=%v", c.Time, c.Memory, c.Threads, c.KeyLength)
}

func CheckPassword(password string, hashedPassword HashedPassword) (bool, error) {
	switch hashedPassword.Algorithm {
	case Argon2id:
		cfg, err := ParseArgon2idConfig(hashedPassword.AlgoConfig)
		if err != nil {
			return false, err
		}

		salt, err := base64.StdEncoding.DecodeString(hashedPassword.Salt)
		if err != nil {
			return false, oops.New(err, "failed to decode salt")
		}

		newHash := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Threads, cfg.KeyLength)
		newHashEnc := base64.StdEncoding.EncodeToString(newHash)

		return subtle.ConstantTimeCompare([]byte(newHashEnc), []byte(hashedPassword.Hash)) == 1, nil
	case Django_PBKDF2SHA256:
		decoded, err := base64.StdEncoding.DecodeString(hashedPassword.Hash)
		if err != nil {
			return false, oops.New(err, "failed to get key length of hashed password")
		}

		iterations, err := strconv.Atoi(hashedPassword.AlgoConfig)
		if err != nil {
			return false, oops.New(err, "failed to get PBKDF2 iterations")
		}

		newHash := pbkdf2.Key(
			[]byte(password),
			[]byte(hashedPassword.Salt),
			iterations,
			len(decoded),
			sha256.New,
		)
		newHashEncoded := base64.StdEncoding.EncodeToString(newHash)

		return subtle.ConstantTimeCompare([]byte(newHashEncoded), []byte(hashedPassword.Hash)) == 1, nil
	default:
		return false, oops.New(nil, "unrecognized password hash algorithm: %s", hashedPassword.Algorithm)
	}
}

func HashPassword(password string) HashedPassword {
	// OWASP recommendations for Argon2id.
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		panic(oops.New(err, "failed to generate salt"))
	}
	saltEnc := base64.StdEncoding.EncodeToString(salt)

	cfg := Argon2idConfig{
		Time:      1,
		Memory:    40 * 1024, // KiB
		Threads:   1,
		KeyLength: keyLength,
	}

	key := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Threads, cfg.KeyLength)
	keyEnc := base64.StdEncoding.EncodeToString(key)

	return HashedPassword{
		Algorithm:  Argon2id,
		AlgoConfig: cfg.String(),
		Salt:       saltEnc,
		Hash:       keyEnc,
	}
}

var (
	ErrUserDoesNotExist = errors.New("user does not exist")
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrBadCredentials   = errors.New("incorrect username or password")
)

func FetchUserByUsername(ctx context.Context, conn db.ConnOrTx, username string) (*models.User, error) {
	user, err := db.QueryOne[models.User](ctx, conn,
		`
		---- Fetch user by username
		SELECT $columns
		FROM auth_user
		WHERE LOWER(username) = LOWER($1)
		`,
		username,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, ErrUserDoesNotExist
		}
		return nil, oops.New(err, "failed to fetch user")
	}
	return user, nil
}

// CreateUser registers a new account. Usernames are unique regardless of case.
func CreateUser(ctx context.Context, conn db.ConnOrTx, username, password string) (*models.User, error) {
	hp := HashPassword(password)
	user, err := db.QueryOne[models.User](ctx, conn,
		`
		---- Create user
		INSERT INTO auth_user (username, password, date_joined)
		VALUES ($1, $2, $3)
		RETURNING $columns
		`,
		username,
		hp.String(),
		time.Now(),
	)
	if err != nil {
		if _, isUnique := db.IsUniqueViolation(err); isUnique {
			return nil, ErrUsernameTaken
		}
		return nil, oops.New(err, "failed to create user")
	}
	return user, nil
}

/*
AuthenticateUser checks a username and password. Unknown users and wrong
passwords both come back as ErrBadCredentials. Passwords stored with an old
algorithm are rehashed on a successful login.
*/
func AuthenticateUser(ctx context.Context, conn db.ConnOrTx, username, password string) (*models.User, error) {
	user, err := FetchUserByUsername(ctx, conn, username)
	if err != nil {
		if errors.Is(err, ErrUserDoesNotExist) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	hashed, err := ParsePasswordString(user.Password)
	if err != nil {
		return nil, oops.New(err, "failed to parse password string for user %d", user.ID)
	}

	ok, err := CheckPassword(password, hashed)
	if err != nil {
		return nil, oops.New(err, "failed to check password for user %d", user.ID)
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	if hashed.IsOutdated() {
		if err := SetPassword(ctx, conn, user.Username, password); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func UpdatePassword(ctx context.Context, conn db.ConnOrTx, username string, hp HashedPassword) error {
	tag, err := conn.Exec(ctx, "UPDATE auth_user SET password = $1 WHERE username = $2", hp.String(), username)
	if err != nil {
		return oops.New(err, "failed to update password")
	} else if tag.RowsAffected() < 1 {
		return ErrUserDoesNotExist
	}

	return nil
}

func SetPassword(ctx context.Context, conn db.ConnOrTx, username string, password string) error {
	hp := HashPassword(password)
	return UpdatePassword(ctx, conn, username, hp)
}

func SetLastLogin(ctx context.Context, conn db.ConnOrTx, userID int, when time.Time) error {
	_, err := conn.Exec(ctx, "UPDATE auth_user SET last_login = $1 WHERE id = $2", when, userID)
	if err != nil {
		return oops.New(err, "failed to update last_login for user")
	}
	return nil
}
