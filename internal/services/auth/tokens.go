package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"yamdb/proj/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

const confirmationCodeLength = 32

// ConfirmationCode derives a code from a snapshot of the user's mutable
// state. No code is stored anywhere: any change to the record (a profile
// update, a role change) silently invalidates codes issued before it.
func (a *AuthService) ConfirmationCode(user *models.User) string {
	snapshot := fmt.Sprintf(
		"%d:%s:%s:%s:%d",
		user.ID,
		user.Username,
		user.Email,
		user.Role,
		user.UpdatedAt.UTC().UnixNano(),
	)
	mac := hmac.New(sha256.New, []byte(a.secret))
	mac.Write([]byte(snapshot))
	return hex.EncodeToString(mac.Sum(nil))[:confirmationCodeLength]
}

func (a *AuthService) CheckConfirmationCode(user *models.User, code string) bool {
	expected := a.ConfirmationCode(user)
	return hmac.Equal([]byte(expected), []byte(code))
}

func (a *AuthService) newAccessToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": user.ID,
		"iat": now.Unix(),
		"exp": now.Add(a.tokenTTL).Unix(),
	})
	return token.SignedString([]byte(a.secret))
}

// VerifyToken parses a bearer token and returns the user ID it is bound to.
func (a *AuthService) VerifyToken(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	uid, ok := claims["uid"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return int64(uid), nil
}
