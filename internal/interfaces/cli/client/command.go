// Package client provides a command-line client for a CookieVault
// backend, used to exercise deployments without a browser extension.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/infrastructure/crypto"
	"github.com/bytescookies/cookievault/internal/shared/logger"
	"github.com/bytescookies/cookievault/sdk/vault"
)

var (
	serverURL  string
	email      string
	domain     string
	cookieFile string
	secret     string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "CookieVault client operations",
		Long:  `Log in to a CookieVault backend and export or import encrypted cookie batches from the command line.`,
	}

	cmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Backend base URL")

	cmd.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newExportCommand(),
		newImportCommand(),
	)

	return cmd
}

func newLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session",
		RunE:  runLogin,
	}
	cmd.Flags().StringVarP(&email, "email", "u", "", "Account email (required)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session",
		RunE:  runLogout,
	}
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Encrypt and sync cookies from a local file",
		RunE:  runExport,
	}
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Cookie domain (required)")
	cmd.Flags().StringVarP(&cookieFile, "cookies", "f", "", "JSON file holding the cookie array (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "Encryption secret (required)")
	cmd.MarkFlagRequired("domain")
	cmd.MarkFlagRequired("cookies")
	cmd.MarkFlagRequired("secret")
	return cmd
}

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Fetch, decrypt and write cookies to a local file",
		RunE:  runImport,
	}
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Cookie domain (required)")
	cmd.Flags().StringVarP(&cookieFile, "cookies", "f", "", "JSON file to write the cookies to (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "Encryption secret (required)")
	cmd.MarkFlagRequired("domain")
	cmd.MarkFlagRequired("cookies")
	cmd.MarkFlagRequired("secret")
	return cmd
}

func sessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cookievault", "session.json")
}

func newSessionManager() (*vault.SessionManager, error) {
	dir := filepath.Dir(sessionPath())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	m := vault.NewSessionManager(vault.SessionConfig{
		BaseURL: serverURL,
		Store:   vault.NewTokenStore(vault.NewFileKV(sessionPath())),
		Fingerprint: vault.DeviceFingerprint{
			UserAgent: "cookievault-cli",
			Platform:  runtime.GOOS,
			Language:  "en-US",
		},
		Logger: logger.NewLogger(),
	})
	return m, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	m, err := newSessionManager()
	if err != nil {
		return err
	}

	var failure string
	m.OnEvent(func(ev vault.Event) {
		if ev.Type == vault.EventLoginFailure {
			failure = ev.Message
		}
	})

	ok, err := m.Login(context.Background(), email, string(password))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !ok {
		return fmt.Errorf("login failed: %s", failure)
	}

	fmt.Println("logged in")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	m, err := newSessionManager()
	if err != nil {
		return err
	}
	if err := m.Restore(context.Background()); err != nil {
		return err
	}
	m.Logout(context.Background())
	fmt.Println("logged out")
	return nil
}

// fileCookieStore adapts a JSON file to the CookieStore interface.
type fileCookieStore struct {
	path    string
	cookies []cookie.Cookie
}

func (s *fileCookieStore) GetAll(ctx context.Context, filter vault.CookieFilter) ([]cookie.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	var cookies []cookie.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("decode cookie file: %w", err)
	}
	if filter.Domain == "" {
		return cookies, nil
	}
	out := cookies[:0]
	for _, c := range cookies {
		if c.Domain == filter.Domain {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fileCookieStore) Set(ctx context.Context, c cookie.Cookie) error {
	s.cookies = append(s.cookies, c)
	return nil
}

func (s *fileCookieStore) flush() error {
	data, err := json.MarshalIndent(s.cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}

func newCookieManager(m *vault.SessionManager, store vault.CookieStore) (*vault.CookieManager, error) {
	cipher, err := crypto.NewCookieCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return vault.NewCookieManager(vault.CookieManagerConfig{
		Store:   store,
		Cipher:  cipher,
		Fetch:   vault.NewResilientFetch(vault.FetchConfig{Session: m}),
		BaseURL: serverURL,
		Logger:  logger.NewLogger(),
	}), nil
}

func runExport(cmd *cobra.Command, args []string) error {
	m, err := newSessionManager()
	if err != nil {
		return err
	}
	if err := m.Restore(context.Background()); err != nil {
		return err
	}
	if !m.IsAuthenticated() {
		return fmt.Errorf("not logged in, run 'client login' first")
	}

	store := &fileCookieStore{path: cookieFile}
	cm, err := newCookieManager(m, store)
	if err != nil {
		return err
	}

	result, err := cm.Export(context.Background(), domain)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d cookies (%d skipped, %d warnings)\n",
		result.Exported, result.Skipped, result.Warnings)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	m, err := newSessionManager()
	if err != nil {
		return err
	}
	if err := m.Restore(context.Background()); err != nil {
		return err
	}
	if !m.IsAuthenticated() {
		return fmt.Errorf("not logged in, run 'client login' first")
	}

	store := &fileCookieStore{path: cookieFile}
	cm, err := newCookieManager(m, store)
	if err != nil {
		return err
	}

	result, err := cm.Import(context.Background(), domain)
	if err != nil {
		return err
	}
	if err := store.flush(); err != nil {
		return err
	}
	fmt.Printf("imported %d cookies (%d skipped, %d failed)\n",
		result.Imported, result.Skipped, result.Failed)
	return nil
}
