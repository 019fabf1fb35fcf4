package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// Ошибки деривации личности
var (
	ErrInvalidTokenFormat = errors.New("token must be 8-120 base62 characters")
)

// Границы длины токена. Генератор выдает 36 символов base62,
// но восстановление принимает и токены других клиентов.
const (
	MinTokenLength = 8
	MaxTokenLength = 120
)

// Параметры scrypt для выведения ключевого материала из токена.
// Деривация должна быть детерминированной: одинаковый токен всегда
// дает одинаковую пару ключей на любом устройстве.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	identitySalt = "robofed/identity/v1"
	keywrapSalt  = "robofed/keywrap/v1"
)

// Identity — результат детерминированной деривации из токена
type Identity struct {
	Nickname    string
	AvatarSeed  string
	TokenSHA256 string
	PubKey      string // base64
	EncPrivKey  string // приватный ключ ed25519, обернутый AES-256-GCM
}

// ValidateToken проверяет, что токен входит в принятый домен:
// base62 (0-9, A-Z, a-z), длина 8-120 символов
func ValidateToken(token string) error {
	if len(token) < MinTokenLength || len(token) > MaxTokenLength {
		return ErrInvalidTokenFormat
	}
	for _, c := range token {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return ErrInvalidTokenFormat
		}
	}
	return nil
}

// HashToken возвращает hex SHA-256 от токена.
// Это единственный идентификационный материал, предъявляемый координатору:
// восстановить токен из хеша невозможно.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DeriveIdentity детерминированно выводит личность робота из токена.
//
// Шаги:
// 1. Валидация формата токена
// 2. SHA-256 → хеш для аутентификации и генерации псевdonима/аватара
// 3. scrypt(token) → 64 байта: seed ed25519 + ключ обертки приватного ключа
// 4. Приватный ключ шифруется AES-256-GCM ключом обертки
//
// Ник, аватар и пара ключей одинаковы при каждом вызове; случайным
// является только nonce шифрования EncPrivKey.
func DeriveIdentity(token string) (*Identity, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}

	digest := sha256.Sum256([]byte(token))

	keyMaterial, err := scrypt.Key([]byte(token), []byte(identitySalt), scryptN, scryptR, scryptP, 64)
	if err != nil {
		return nil, fmt.Errorf("scrypt derivation failed: %w", err)
	}

	seed := keyMaterial[:ed25519.SeedSize]
	wrapKey := keyMaterial[32:64]

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	encPriv, err := Encrypt(priv, wrapKey)
	if err != nil {
		return nil, err
	}

	// Аватар детерминирован вторым хешем, чтобы не совпадать с auth-хешем
	avatarDigest := sha256.Sum256(digest[:])

	return &Identity{
		Nickname:    NicknameFromDigest(digest[:]),
		AvatarSeed:  hex.EncodeToString(avatarDigest[:]),
		TokenSHA256: hex.EncodeToString(digest[:]),
		PubKey:      base64.StdEncoding.EncodeToString(pub),
		EncPrivKey:  encPriv,
	}, nil
}

// deriveWrapKey восстанавливает ключ обертки приватного ключа из токена.
// Используется при подписи: токен — единственный секрет пользователя.
func deriveWrapKey(token string) ([]byte, error) {
	keyMaterial, err := scrypt.Key([]byte(token), []byte(identitySalt), scryptN, scryptR, scryptP, 64)
	if err != nil {
		return nil, fmt.Errorf("scrypt derivation failed: %w", err)
	}
	return keyMaterial[32:64], nil
}

// Словари для генерации псевдонимов роботов
var nicknameAdjectives = []string{
	"Able", "Brave", "Calm", "Daring", "Eager", "Fancy", "Gentle", "Happy",
	"Icy", "Jolly", "Keen", "Lucky", "Mighty", "Noble", "Odd", "Proud",
	"Quick", "Rusty", "Sneaky", "Tidy", "Urban", "Vivid", "Witty", "Young",
	"Zesty", "Bold", "Crisp", "Dusty", "Elder", "Fuzzy", "Grand", "Hidden",
}

var nicknameNouns = []string{
	"Satoshi", "Hawk", "Otter", "Falcon", "Badger", "Lynx", "Raven", "Wolf",
	"Beaver", "Heron", "Viper", "Moose", "Puma", "Crane", "Gecko", "Bison",
	"Ferret", "Osprey", "Marten", "Condor", "Jackal", "Walrus", "Magpie", "Stoat",
	"Weasel", "Tern", "Grouse", "Shrike", "Plover", "Skink", "Finch", "Vole",
}

// NicknameFromDigest детерминированно строит псевдоним вида
// "SneakySatoshi493" из первых байтов хеша токена
func NicknameFromDigest(digest []byte) string {
	if len(digest) < 8 {
		return ""
	}
	adj := nicknameAdjectives[int(digest[0])%len(nicknameAdjectives)]
	noun := nicknameNouns[int(digest[1])%len(nicknameNouns)]
	num := binary.BigEndian.Uint32(digest[2:6]) % 1000
	return fmt.Sprintf("%s%s%03d", adj, noun, num)
}
