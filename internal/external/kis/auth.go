package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/overseas-dashboard/pkg/config"
)

const tokenPath = "/oauth2/tokenP"

// TokenResponse represents the OAuth token response
type TokenResponse struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int    `json:"expires_in"`
	AccessTokenExpired string `json:"access_token_token_expired"`

	// Present on failures
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

type tokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

// GetAccessToken exchanges app credentials for an access token.
// Every call is a fresh round trip; nothing is cached.
func (c *Client) GetAccessToken(ctx context.Context, creds config.KISConfig) (string, error) {
	url := creds.BaseURL + tokenPath

	resp, err := c.httpClient.PostJSON(ctx, url, tokenRequest{
		GrantType: "client_credentials",
		AppKey:    creds.AppKey,
		AppSecret: creds.AppSecret,
	})
	if err != nil {
		return "", &TransportError{Op: "token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "token", StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		// KIS answers bad credentials with 4xx plus error_code/error_description
		var rejected TokenResponse
		if json.Unmarshal(body, &rejected) == nil && (rejected.ErrorCode != "" || rejected.ErrorDescription != "") {
			return "", &AuthError{
				Code:        rejected.ErrorCode,
				Description: rejected.ErrorDescription,
				Err:         fmt.Errorf("%w (status %d)", ErrTokenRejected, resp.StatusCode),
			}
		}
		return "", &TransportError{Op: "token", StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &TransportError{Op: "token", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode token response: %w", err)}
	}

	if tokenResp.AccessToken == "" {
		return "", &AuthError{
			Code:        tokenResp.ErrorCode,
			Description: tokenResp.ErrorDescription,
			Err:         ErrNoAccessToken,
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"expires_in": tokenResp.ExpiresIn,
	}).Info("KIS access token issued")

	return tokenResp.AccessToken, nil
}
