package jellyfin

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/jellyshelf/internal/domain"
	"golang.org/x/term"
	"resty.dev/v3"
)

const (
	authTimeout = 30 * time.Second

	clientName    = "Jellyshelf"
	clientDevice  = "CLI"
	clientVersion = "1.0.0"
)

// NewDeviceID returns a fresh device identifier for the auth header
func NewDeviceID() string {
	return uuid.NewString()
}

// AuthFlow implements domain.AuthFlow for Jellyfin username/password authentication
type AuthFlow struct {
	deviceID string
	logger   *slog.Logger
	http     *resty.Client
}

var _ domain.AuthFlow = (*AuthFlow)(nil)

// NewAuthFlow creates a new Jellyfin authentication flow
func NewAuthFlow(deviceID string, logger *slog.Logger) *AuthFlow {
	if logger == nil {
		logger = slog.Default()
	}
	if deviceID == "" {
		deviceID = NewDeviceID()
	}
	return &AuthFlow{
		deviceID: deviceID,
		logger:   logger.With("component", "jellyfin-auth"),
		http:     resty.New().SetTimeout(authTimeout),
	}
}

// DeviceID returns the device identifier sent with the login request
func (f *AuthFlow) DeviceID() string { return f.deviceID }

// Run prompts for credentials on the terminal and authenticates against the server
func (f *AuthFlow) Run(ctx context.Context, serverURL string) (*domain.AuthResult, error) {
	serverURL = strings.TrimRight(serverURL, "/")

	fmt.Println()
	fmt.Println("Jellyfin Authentication")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)

	// Hidden input
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Println("Authenticating...")
	result, err := f.Authenticate(ctx, serverURL, username, string(passwordBytes))
	if err != nil {
		return nil, err
	}
	fmt.Println("Authentication successful!")
	return result, nil
}

// Authenticate exchanges a username and password for an access token
func (f *AuthFlow) Authenticate(ctx context.Context, serverURL, username, password string) (*domain.AuthResult, error) {
	var authResp AuthResponse
	resp, err := f.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Emby-Authorization", buildAuthHeader("", f.deviceID)).
		SetBody(map[string]string{"Username": username, "Pw": password}).
		SetResult(&authResp).
		Post(strings.TrimRight(serverURL, "/") + "/Users/AuthenticateByName")
	if err != nil {
		f.logger.Error("jellyfin auth request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case status != http.StatusOK:
		f.logger.Error("jellyfin auth error", "status", status)
		return nil, fmt.Errorf("authentication failed with status %d", status)
	}

	if authResp.AccessToken == "" || authResp.User.ID == "" {
		return nil, fmt.Errorf("%w: auth response without token", domain.ErrMalformedResponse)
	}

	return &domain.AuthResult{
		Token:    authResp.AccessToken,
		UserID:   authResp.User.ID,
		Username: authResp.User.Name,
	}, nil
}

// buildAuthHeader constructs the X-Emby-Authorization header
func buildAuthHeader(token, deviceID string) string {
	parts := []string{
		fmt.Sprintf(`MediaBrowser Client="%s"`, clientName),
		fmt.Sprintf(`Device="%s"`, clientDevice),
		fmt.Sprintf(`DeviceId="%s"`, deviceID),
		fmt.Sprintf(`Version="%s"`, clientVersion),
	}
	if token != "" {
		parts = append(parts, fmt.Sprintf(`Token="%s"`, token))
	}
	return strings.Join(parts, ", ")
}
