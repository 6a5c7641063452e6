package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/config"
	ports "expenses/internal/sheets"
)

var headerRow = []any{"ID", "Date", "Description", "Amount"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	sheetID       *int64
}

var _ ports.Mirror = (*Client)(nil)

// Credentials holds the raw JSON documents used to authenticate. A service
// account takes precedence over an OAuth client + token pair.
type Credentials struct {
	ServiceAccountJSON []byte
	OAuthClientJSON    []byte
	OAuthTokenJSON     []byte
}

// CredentialsFromConfig resolves inline JSON or file paths from cfg.
func CredentialsFromConfig(cfg *config.Config) (Credentials, error) {
	var (
		creds Credentials
		err   error
	)
	if creds.ServiceAccountJSON, err = jsonOrFile(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile); err != nil {
		return Credentials{}, fmt.Errorf("service account: %w", err)
	}
	if len(creds.ServiceAccountJSON) > 0 {
		return creds, nil
	}
	if creds.OAuthClientJSON, err = jsonOrFile(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile); err != nil {
		return Credentials{}, fmt.Errorf("oauth client: %w", err)
	}
	if creds.OAuthTokenJSON, err = jsonOrFile(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile); err != nil {
		return Credentials{}, fmt.Errorf("oauth token: %w", err)
	}
	if len(creds.OAuthClientJSON) == 0 || len(creds.OAuthTokenJSON) == 0 {
		return Credentials{}, errors.New("missing Google credentials (service account or OAuth client + token)")
	}
	return creds, nil
}

func jsonOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		return b, nil
	}
	return nil, nil
}

// ClientOptions builds the API options for creds.
func ClientOptions(ctx context.Context, creds Credentials) ([]goption.ClientOption, error) {
	if len(creds.ServiceAccountJSON) > 0 {
		return []goption.ClientOption{
			goption.WithCredentialsJSON(creds.ServiceAccountJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	}

	oauthCfg, err := goauth.ConfigFromJSON(creds.OAuthClientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(creds.OAuthTokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	return []goption.ClientOption{goption.WithHTTPClient(oauthCfg.Client(ctx, &tok))}, nil
}

// New creates a Sheets client for the given spreadsheet and tab.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// NewFromConfig resolves credentials from cfg and creates the client.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	creds, err := CredentialsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts, err := ClientOptions(ctx, creds)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets client",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"service_account", len(creds.ServiceAccountJSON) > 0)
	return New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, opts...)
}

// EnsureHeader writes the header row when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:D1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{headerRow}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (c *Client) HasExpense(ctx context.Context, id int64) (bool, error) {
	row, err := c.findRow(ctx, id)
	if err != nil {
		return false, err
	}
	return row >= 0, nil
}

func (c *Client) AppendExpense(ctx context.Context, row ports.Row) error {
	rng := fmt.Sprintf("%s!A:D", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{{row.ID, row.Date, row.Description, row.Amount}}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", c.sheetName, err)
	}
	return nil
}

func (c *Client) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	row, err := c.findRow(ctx, id)
	if err != nil || row < 0 {
		return false, err
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return false, err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row),
					EndIndex:   int64(row + 1),
					// zero is a valid sheet id and start index
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("delete row %d from %s: %w", row+1, c.sheetName, err)
	}
	return true, nil
}

// findRow returns the zero-based index of the row whose column A equals id,
// or -1.
func (c *Client) findRow(ctx context.Context, id int64) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return -1, fmt.Errorf("read %s: %w", rng, err)
	}
	return indexOfID(resp.Values, id), nil
}

func indexOfID(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i
		}
	}
	return -1
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}
