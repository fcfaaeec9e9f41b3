package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/remission-backend/internal/data/db"
	"github.com/yungbote/remission-backend/internal/data/repos"
	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/platform/apierr"
	"github.com/yungbote/remission-backend/internal/platform/ctxutil"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

const (
	subjectIDAttempts = 3
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

var subjectIDRe = regexp.MustCompile(`^[1-9][0-9]{9}$`)

var ErrInvalidCredentials = errors.New("invalid subject id or password")

func ValidSubjectID(s string) bool { return subjectIDRe.MatchString(s) }

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	GenerateUser(ctx context.Context, password string) (*types.User, string, error)
	Login(ctx context.Context, subjectID, password string) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	newSubjectID func() (string, error)
	now          func() time.Time
}

func NewAuthService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		log:          serviceLog,
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		newSubjectID: randomSubjectID,
		now:          time.Now,
	}
}

// randomSubjectID returns a uniformly random 10-digit id without a leading zero.
func randomSubjectID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 1_000_000_000+n.Int64()), nil
}

func (as *authService) GenerateUser(ctx context.Context, password string) (*types.User, string, error) {
	var hash string
	if password != "" {
		if len(password) < minPasswordLength || len(password) > maxPasswordLength {
			return nil, "", apierr.BadRequest("validation_failed",
				fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength))
		}
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", fmt.Errorf("hash password: %w", err)
		}
		hash = string(b)
	}

	var user *types.User
	for attempt := 1; attempt <= subjectIDAttempts; attempt++ {
		subjectID, err := as.newSubjectID()
		if err != nil {
			return nil, "", fmt.Errorf("generate subject id: %w", err)
		}
		created, err := as.userRepo.Create(ctx, nil, []*types.User{{SubjectID: subjectID, PasswordHash: hash}})
		if err == nil {
			user = created[0]
			break
		}
		if !db.IsUniqueViolation(err) {
			return nil, "", fmt.Errorf("create user: %w", err)
		}
		as.log.Warn("Subject id collision, retrying", "attempt", attempt)
	}
	if user == nil {
		return nil, "", apierr.Unavailable("subject_id_exhausted", errors.New("could not allocate a unique subject id"))
	}

	token, err := as.generateAccessToken(user.SubjectID)
	if err != nil {
		return nil, "", fmt.Errorf("generate access token: %w", err)
	}
	as.log.Info("Generated user", "subject_id", user.SubjectID, "password", hash != "")
	return user, token, nil
}

func (as *authService) Login(ctx context.Context, subjectID, password string) (string, error) {
	subjectID = strings.TrimSpace(subjectID)
	if !ValidSubjectID(subjectID) || password == "" {
		return "", apierr.Unauthorized(ErrInvalidCredentials)
	}
	users, err := as.userRepo.GetBySubjectIDs(ctx, nil, []string{subjectID})
	if err != nil {
		return "", fmt.Errorf("get user by subject id: %w", err)
	}
	if len(users) == 0 || users[0].PasswordHash == "" {
		return "", apierr.Unauthorized(ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte(password)); err != nil {
		return "", apierr.Unauthorized(ErrInvalidCredentials)
	}
	return as.generateAccessToken(subjectID)
}

func (as *authService) generateAccessToken(subjectID string) (string, error) {
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired JWT token")
	}
	if !ValidSubjectID(claims.Subject) {
		return ctx, fmt.Errorf("invalid subject id in token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		SubjectID:   claims.Subject,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
