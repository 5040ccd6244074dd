package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/mailer"
	"nexus-chat-be/internal/pkg/serverutils"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/events"
	pktNats "nexus-chat-be/pkg/nats"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	GetGoogleLoginURL() (string, error)
	HandleGoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	googleConf     *oauth2.Config
	logger         logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IAuthService {
	conf := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		uowFactory:     uowFactory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		googleConf:     conf,
		logger:         log,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserProfileRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	profile := &entity.UserProfile{
		Id:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: &hashStr,
		Provider:     "manual",
		CreatedAt:    time.Now(),
	}

	if err := uow.UserProfileRepository().Create(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("AuthService", "User registered", map[string]interface{}{
		"user_id": profile.Id,
		"email":   profile.Email,
	})

	// The welcome mail must not hold the request hostage.
	go func() {
		if err := s.emailService.SendWelcome(profile.Email, profile.FullName); err != nil {
			s.logger.Warn("AuthService", "Welcome mail failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	if s.eventPublisher != nil {
		evt := events.NewUserRegistered(profile.Id, profile.Email, profile.Provider)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("AuthService", "Event publish failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return s.issueToken(profile)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	profile, err := uow.UserProfileRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(profile)
}

func (s *authService) GetGoogleLoginURL() (string, error) {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *authService) HandleGoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %v", err)
	}

	userInfoURL := "https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken
	resp, err := http.Get(userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %v", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %v", err)
	}

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(content, &googleUser); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	profile, err := uow.UserProfileRepository().FindOne(ctx, specification.ByEmail{Email: googleUser.Email})
	if err != nil {
		return nil, err
	}

	if profile == nil {
		profile = &entity.UserProfile{
			Id:        uuid.New(),
			Email:     googleUser.Email,
			FullName:  googleUser.Name,
			Provider:  "google",
			CreatedAt: time.Now(),
		}
		if googleUser.Picture != "" {
			profile.AvatarURL = &googleUser.Picture
		}
		if err := uow.UserProfileRepository().Create(ctx, profile); err != nil {
			return nil, err
		}

		go func() {
			if err := s.emailService.SendWelcome(profile.Email, profile.FullName); err != nil {
				s.logger.Warn("AuthService", "Welcome mail failed", map[string]interface{}{"error": err.Error()})
			}
		}()

		if s.eventPublisher != nil {
			evt := events.NewUserRegistered(profile.Id, profile.Email, profile.Provider)
			if err := s.eventPublisher.Publish(ctx, evt); err != nil {
				s.logger.Warn("AuthService", "Event publish failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	return s.issueToken(profile)
}

func (s *authService) issueToken(profile *entity.UserProfile) (*dto.AuthResponse, error) {
	token, err := serverutils.GenerateToken(profile.Id)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token:   token,
		Profile: toProfileResponse(profile),
	}, nil
}

func toProfileResponse(profile *entity.UserProfile) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		Id:        profile.Id,
		FullName:  profile.FullName,
		Email:     profile.Email,
		AvatarURL: profile.AvatarURL,
		Bio:       profile.Bio,
		Provider:  profile.Provider,
	}
}
