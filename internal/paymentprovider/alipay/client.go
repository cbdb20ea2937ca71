// Package alipay клиент шлюза Alipay OpenAPI поверх github.com/smartwalle/alipay/v3:
// подпись запросов RSA2, проверка подписи ответов и асинхронных уведомлений.
package alipay

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sdk "github.com/smartwalle/alipay/v3"

	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/obs"
)

// Ошибки клиента.
var (
	ErrInvalidSignature = errors.New("alipay: invalid signature")
	ErrNoPublicKey      = errors.New("alipay: public key is not configured")
	ErrMissingConfig    = errors.New("alipay: app id or private key is not configured")
	ErrEmptyResponse    = errors.New("alipay: response node is missing")
)

var beijing = time.FixedZone("CST", 8*60*60)

// Client клиент шлюза Alipay.
type Client struct {
	api       *sdk.Client
	notifyURL string
	// verifier есть только при заданном публичном ключе шлюза
	verifier bool
}

// NewClient создаёт клиент по настройкам. Ключи принимаются как PEM или как
// голый base64, в котором их выдаёт кабинет Alipay: приватный в PKCS#1 или
// PKCS#8, публичный в PKIX.
func NewClient(cfg config.Alipay) (*Client, error) {
	const op = "alipay.NewClient"
	if cfg.AppID == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingConfig)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client, err := sdk.New(cfg.AppID, normalizeKey(cfg.PrivateKey), true,
		sdk.WithProductionGateway(cfg.Gateway),
		sdk.WithTimeLocation(beijing),
		sdk.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: private key: %w", op, err)
	}

	c := &Client{api: client, notifyURL: cfg.NotifyURL}
	if cfg.PublicKey != "" {
		if err := client.LoadAliPayPublicKey(normalizeKey(cfg.PublicKey)); err != nil {
			return nil, fmt.Errorf("%s: public key: %w", op, err)
		}
		c.verifier = true
	}
	return c, nil
}

// Precreate создаёт сделку и возвращает ответ с qr_code.
func (c *Client) Precreate(ctx context.Context, req PrecreateRequest) (*TradeResponse, error) {
	param := sdk.TradePreCreate{}
	param.NotifyURL = c.notifyURL
	param.OutTradeNo = req.OutTradeNo
	param.Subject = req.Subject
	param.TotalAmount = strconv.FormatFloat(req.Amount, 'f', 2, 64)
	param.ProductCode = productCodeFaceToFace
	return c.execute(ctx, param)
}

// Query запрашивает состояние сделки с проверкой подписи ответа.
func (c *Client) Query(ctx context.Context, outTradeNo string) (*TradeResponse, error) {
	return c.execute(ctx, sdk.TradeQuery{OutTradeNo: outTradeNo})
}

// QueryUnverified запрашивает состояние сделки без проверки подписи ответа.
func (c *Client) QueryUnverified(ctx context.Context, outTradeNo string) (*TradeResponse, error) {
	return c.execute(ctx, unverifiedQuery{TradeQuery: sdk.TradeQuery{OutTradeNo: outTradeNo}})
}

// VerifyNotify проверяет подпись асинхронного уведомления.
func (c *Client) VerifyNotify(ctx context.Context, params url.Values) error {
	const op = "alipay.VerifyNotify"
	if !c.verifier {
		return fmt.Errorf("%s: %w", op, ErrNoPublicKey)
	}
	if params.Get("sign") == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}
	if err := c.api.VerifySign(ctx, params); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidSignature, err)
	}
	return nil
}

// unverifiedQuery trade.query, ответ которого SDK не сверяет с подписью.
type unverifiedQuery struct {
	sdk.TradeQuery
}

func (unverifiedQuery) NeedVerify() bool { return false }

func (c *Client) execute(ctx context.Context, param sdk.Param) (resp *TradeResponse, err error) {
	method := param.APIName()
	op := "alipay.execute." + method
	defer func() { obs.ObserveProviderCall(method, err) }()

	if param.NeedVerify() && !c.verifier {
		return nil, fmt.Errorf("%s: %w", op, ErrNoPublicKey)
	}

	resp = &TradeResponse{}
	if err = c.api.Request(ctx, param, resp); err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			// неподписанный узел с кодом успеха
			if apiErr.IsSuccess() {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
			}
			// error_response шлюза: отдаём как неуспешный ответ, а не как сбой
			return errorResponse(apiErr), nil
		}
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return resp, nil
}

// classify приводит ошибки SDK к ошибкам пакета.
func classify(err error) error {
	var corrupt base64.CorruptInputError
	switch {
	case errors.Is(err, sdk.ErrBadResponse):
		return ErrEmptyResponse
	case errors.Is(err, rsa.ErrVerification), errors.As(err, &corrupt):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return err
}

func errorResponse(e *sdk.Error) *TradeResponse {
	resp := &TradeResponse{
		Code:    string(e.Code),
		Msg:     e.Msg,
		SubCode: e.SubCode,
		SubMsg:  e.SubMsg,
	}
	resp.Raw, _ = json.Marshal(e)
	return resp
}

// normalizeKey снимает PEM-обёртку: SDK ждёт ключ без заголовков.
func normalizeKey(s string) string {
	s = strings.TrimSpace(s)
	if block, _ := pem.Decode([]byte(s)); block != nil {
		return base64.StdEncoding.EncodeToString(block.Bytes)
	}
	return s
}
