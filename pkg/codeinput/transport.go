package codeinput

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ErrRequestRejected is returned when the server rejects the request itself
// (bad nonce, unknown action) rather than the code. Callers must not render
// it as a field error.
var ErrRequestRejected = errors.New("validation request rejected")

// HTTPTransport issues validation calls against the site's form-encoded
// AJAX endpoint.
type HTTPTransport struct {
	client   *http.Client
	endpoint string
	action   string
	nonce    func() string
}

// NewHTTPTransport creates a transport posting to endpoint. The nonce
// function supplies the anti-forgery token embedded in the page; it is
// re-read per request so a refreshed token is picked up.
func NewHTTPTransport(client *http.Client, endpoint, action string, nonce func() string) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{
		client:   client,
		endpoint: endpoint,
		action:   action,
		nonce:    nonce,
	}
}

// Validate posts the code and decodes the {success, data:{valid, message}}
// response shape.
func (t *HTTPTransport) Validate(ctx context.Context, code string) (Result, error) {
	form := url.Values{
		"action":        {t.action},
		"nonce":         {t.nonce()},
		"discount_code": {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, errors.Wrap(err, "post validation")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, errors.Wrap(err, "read response")
	}

	success, result, message, err := decodeValidationResponse(body)
	if err != nil {
		return Result{}, errors.Wrap(err, "decode response")
	}
	if !success || resp.StatusCode != http.StatusOK {
		return Result{}, errors.Wrapf(ErrRequestRejected, "%s", message)
	}
	return result, nil
}

// decodeValidationResponse parses the wire shape, tolerating unknown fields.
func decodeValidationResponse(body []byte) (success bool, result Result, message string, err error) {
	d := jx.DecodeBytes(body)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			success = v
			return nil
		case "data":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "valid":
					v, err := d.Bool()
					if err != nil {
						return err
					}
					result.Valid = v
					return nil
				case "message":
					v, err := d.Str()
					if err != nil {
						return err
					}
					result.Message = v
					message = v
					return nil
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	})
	return success, result, message, err
}
