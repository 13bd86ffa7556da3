package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
)

// FirebaseConfig points at the Identity Toolkit and Secure Token REST APIs
type FirebaseConfig struct {
	APIKey   string
	AuthURL  string
	TokenURL string
}

// Firebase implements Provider over the Identity Toolkit REST API
type Firebase struct {
	cfg  FirebaseConfig
	http *httpclient.Client
	now  func() time.Time
}

// NewFirebase creates a Firebase provider. client must not carry a base URL
// since the provider calls two hosts.
func NewFirebase(cfg FirebaseConfig, client *httpclient.Client) *Firebase {
	cfg.AuthURL = strings.TrimRight(cfg.AuthURL, "/")
	cfg.TokenURL = strings.TrimRight(cfg.TokenURL, "/")
	return &Firebase{cfg: cfg, http: client, now: time.Now}
}

func (f *Firebase) accounts(method string) string {
	return f.cfg.AuthURL + "/accounts:" + method + "?key=" + url.QueryEscape(f.cfg.APIKey)
}

func (f *Firebase) call(ctx context.Context, target string, body any) (gjson.Result, error) {
	var raw []byte
	if err := f.http.Public(nil).Post(ctx, target, body, &raw); err != nil {
		return gjson.Result{}, mapFirebaseError(err)
	}
	return gjson.ParseBytes(raw), nil
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	res, err := f.call(ctx, f.accounts("signInWithPassword"), map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	ident := f.identityFrom(res, "localId", "idToken", "refreshToken", "expiresIn")
	ident.PhotoURL = res.Get("profilePicture").String()
	return ident, nil
}

func (f *Firebase) Register(ctx context.Context, email, password string, profile domain.Profile) (*domain.Identity, error) {
	res, err := f.call(ctx, f.accounts("signUp"), map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	ident := f.identityFrom(res, "localId", "idToken", "refreshToken", "expiresIn")

	if profile.DisplayName != "" || profile.PhotoURL != "" {
		if err := f.UpdateProfile(ctx, ident.Token, profile); err != nil {
			return nil, &domain.ConsistencyError{Op: "apply profile", Err: err}
		}
		ident.DisplayName = profile.DisplayName
		ident.PhotoURL = profile.PhotoURL
	}
	return ident, nil
}

func (f *Firebase) Lookup(ctx context.Context, token string) (*domain.Identity, error) {
	res, err := f.call(ctx, f.accounts("lookup"), map[string]any{"idToken": token})
	if err != nil {
		return nil, err
	}
	user := res.Get("users.0")
	if !user.Exists() {
		return nil, domain.ErrUnauthenticated
	}
	if user.Get("disabled").Bool() {
		return nil, &domain.AuthError{Kind: domain.Unauthenticated, Err: domain.ErrSuspended}
	}
	return &domain.Identity{
		UID:         user.Get("localId").String(),
		Email:       user.Get("email").String(),
		DisplayName: user.Get("displayName").String(),
		PhotoURL:    user.Get("photoUrl").String(),
		Token:       token,
	}, nil
}

func (f *Firebase) Refresh(ctx context.Context, refreshToken string) (*domain.Identity, error) {
	target := f.cfg.TokenURL + "/token?key=" + url.QueryEscape(f.cfg.APIKey)
	res, err := f.call(ctx, target, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		return nil, err
	}
	fresh := f.identityFrom(res, "user_id", "id_token", "refresh_token", "expires_in")

	// the token endpoint does not return profile fields
	profile, err := f.Lookup(ctx, fresh.Token)
	if err != nil {
		return nil, err
	}
	fresh.Email = profile.Email
	fresh.DisplayName = profile.DisplayName
	fresh.PhotoURL = profile.PhotoURL
	return fresh, nil
}

func (f *Firebase) UpdateProfile(ctx context.Context, token string, profile domain.Profile) error {
	_, err := f.call(ctx, f.accounts("update"), map[string]any{
		"idToken":           token,
		"displayName":       profile.DisplayName,
		"photoUrl":          profile.PhotoURL,
		"returnSecureToken": false,
	})
	return err
}

// SignOut has no server side for Firebase ID tokens; they simply expire
func (f *Firebase) SignOut(context.Context, *domain.Identity) error {
	return nil
}

func (f *Firebase) identityFrom(res gjson.Result, uid, token, refresh, expires string) *domain.Identity {
	ident := &domain.Identity{
		UID:          res.Get(uid).String(),
		Email:        res.Get("email").String(),
		DisplayName:  res.Get("displayName").String(),
		Token:        res.Get(token).String(),
		RefreshToken: res.Get(refresh).String(),
	}
	if secs := res.Get(expires).Int(); secs > 0 {
		ident.ExpiresAt = f.now().Add(time.Duration(secs) * time.Second)
	}
	return ident
}

// mapFirebaseError turns the provider's error.message codes into domain
// errors. Messages look like "WEAK_PASSWORD : Password should be ...".
func mapFirebaseError(err error) error {
	var respErr *httpclient.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}

	code := gjson.GetBytes(respErr.Body, "error.message").String()
	if code == "" {
		return err
	}
	if i := strings.Index(code, " "); i > 0 {
		code = code[:i]
	}

	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return &domain.AuthError{Kind: domain.InvalidCredentials, Err: errors.New(code)}
	case "USER_DISABLED":
		return &domain.AuthError{Kind: domain.InvalidCredentials, Err: domain.ErrSuspended}
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_NOT_FOUND", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return &domain.AuthError{Kind: domain.Unauthenticated, Err: errors.New(code)}
	case "EMAIL_EXISTS":
		return &domain.ValidationError{Field: "email", Rule: "unique", Message: "Email is already registered"}
	case "INVALID_EMAIL":
		return &domain.ValidationError{Field: "email", Rule: "email", Message: "Email address is invalid"}
	case "WEAK_PASSWORD":
		return &domain.ValidationError{Field: "password", Rule: "strongpassword", Message: "Password is too weak"}
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return &domain.NetworkError{Kind: domain.ServerError, Status: respErr.Status, Err: errors.New(code)}
	}
	return err
}
