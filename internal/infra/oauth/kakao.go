package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/infra/httpclient"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
)

const (
	kakaoTokenURL    = "https://kauth.kakao.com/oauth/token"
	kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"
)

type Kakao struct {
	cfg  Config
	http *http.Client
}

func NewKakao(cfg Config) *Kakao {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Kakao{cfg: cfg, http: httpclient.New(timeout)}
}

func (k *Kakao) Name() string { return "kakao" }

func (k *Kakao) Exchange(ctx context.Context, code string) (authsvc.OAuthIdentity, error) {
	token, err := exchangeCode(ctx, k.http, kakaoTokenURL, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {k.cfg.ClientID},
		"client_secret": {k.cfg.ClientSecret},
		"redirect_uri":  {k.cfg.RedirectURL},
	})
	if err != nil {
		return authsvc.OAuthIdentity{}, err
	}

	var info struct {
		ID      int64 `json:"id"`
		Account struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname string `json:"nickname"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := fetchJSON(ctx, k.http, kakaoUserInfoURL, token, &info); err != nil {
		return authsvc.OAuthIdentity{}, err
	}
	if info.ID == 0 {
		return authsvc.OAuthIdentity{}, fmt.Errorf("kakao userinfo missing id")
	}

	return authsvc.OAuthIdentity{
		Provider: k.Name(),
		Subject:  strconv.FormatInt(info.ID, 10),
		Email:    info.Account.Email,
		Nickname: info.Account.Profile.Nickname,
	}, nil
}
