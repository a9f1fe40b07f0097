package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/cmd/config"
	"nomorewaste/domain"
	"nomorewaste/internal/testdb"
	"nomorewaste/pkg/apiclient"
	"nomorewaste/pkg/jwt"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "nomorewaste", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "migrate", "token", "scan", "watch", "recipe"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	t.Setenv("NOMOREWASTE_API_URL", "http://fridge.local:9000")
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
	assert.Equal(t, "http://fridge.local:9000", cmd.PersistentFlags().Lookup("api-url").DefValue)
	assert.Equal(t, "ws://localhost:8081/ws", cmd.PersistentFlags().Lookup("ws-url").DefValue)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "token", "--user-id", "u1", "--email", "a@example.com", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	out, err := run(t, "token", "--user-id", "u1", "--email", "ana@example.com", "--ttl", "1h")
	require.NoError(t, err)

	userID, email, err := jwt.NewJWTServiceWithSecret("cli-secret").GetUserIDByToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "ana@example.com", email)
}

func TestTokenCommand_RequiresUser(t *testing.T) {
	_, err := run(t, "token", "--email", "ana@example.com")
	require.Error(t, err)
}

func TestMemberCommandsNeedToken(t *testing.T) {
	t.Setenv("NOMOREWASTE_TOKEN", "")
	_, err := run(t, "recipe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

type receiptModel struct{}

func (receiptModel) Extract(ctx context.Context, image []byte, today time.Time) ([]byte, error) {
	return []byte(`{"items":[{"name":"Apples","price":1.5,"quantity":6,"category":"Produce"}]}`), nil
}

func (receiptModel) GenerateContent(ctx context.Context, parts []map[string]interface{}, cfg map[string]interface{}) (string, error) {
	return "Apple crumble", nil
}

func TestScanAndRecipeAgainstServer(t *testing.T) {
	jwtService := jwt.NewJWTServiceWithSecret("scan-secret")
	srv, err := config.NewApp(testdb.Open(t),
		config.WithJWTService(jwtService),
		config.WithModel(receiptModel{}),
		config.WithStorage(nil),
		config.WithMailer(nil),
		config.WithAccessLog(io.Discard),
		config.WithRateLimit(0),
	)
	require.NoError(t, err)
	api := httptest.NewServer(adaptor.FiberApp(srv.App))
	defer api.Close()

	token, err := jwtService.GenerateToken("ana", "ana@example.com", time.Hour)
	require.NoError(t, err)
	client := apiclient.New(api.URL, token, nil)
	_, err = client.CreateHousehold(context.Background(), "Flat 4B")
	require.NoError(t, err)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 20, 20))))
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, img.Bytes(), 0o600))

	out, err := run(t, "scan", path, "--format", "json", "--api-url", api.URL, "--token", token)
	require.NoError(t, err)
	var drafts []domain.DraftItem
	require.NoError(t, json.Unmarshal([]byte(out), &drafts))
	require.Len(t, drafts, 1)
	assert.Equal(t, "Apples", drafts[0].Name)

	inv, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, inv.Items)

	out, err = run(t, "scan", path, "--commit", "--api-url", api.URL, "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "Apples")
	assert.Contains(t, out, "added 1 items")

	inv, err = client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 6, inv.Items[0].Quantity)

	out, err = run(t, "recipe", "--mode", "surprise", "--api-url", api.URL, "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "Apple crumble")
	assert.Contains(t, out, "(1 left today)")
}
