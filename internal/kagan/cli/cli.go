package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/internal/kagan/service"
	"github.com/aussiebroadwan/kagan/internal/kagan/store"
	"github.com/aussiebroadwan/kagan/pkg/slogx"
)

var (
	// ErrUsage is returned after usage text has been printed.
	ErrUsage = errors.New("invalid usage")

	errPasswordMismatch = errors.New("رمز عبور و تکرار آن یکسان نیستند")
	errSelfDeactivate   = errors.New("نمی‌توانید حساب کاربری خودتان را غیرفعال کنید")
)

// CLI is the terminal front end. It takes the place of the login dialog and
// the user settings screen.
type CLI struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Bootstrap *service.BootstrapService // optional
	Seeder    *service.Seeder
	Store     store.Store

	Prompter Prompter
	Out      io.Writer
	Err      io.Writer
}

type command struct {
	path  []string
	args  string
	help  string
	setup bool // provision the first administrator before running
	run   func(c *CLI, ctx context.Context, args []string) error
}

func commandTable() []command {
	return []command{
		{path: []string{"login"}, args: "[-u username]", help: "ورود و نمایش دسترسی‌ها", setup: true, run: (*CLI).login},
		{path: []string{"passwd"}, args: "[-u username]", help: "تغییر رمز عبور", setup: true, run: (*CLI).passwd},
		{path: []string{"users", "list"}, args: "[-as admin]", help: "فهرست کاربران", setup: true, run: (*CLI).usersList},
		{path: []string{"users", "add"}, args: "[-as admin] -username u -name n [-role r] [-email e] [-phone p]", help: "ایجاد کاربر", setup: true, run: (*CLI).usersAdd},
		{path: []string{"users", "reset"}, args: "[-as admin] <username>", help: "بازنشانی رمز عبور کاربر", setup: true, run: (*CLI).usersReset},
		{path: []string{"users", "deactivate"}, args: "[-as admin] <username>", help: "غیرفعال کردن کاربر", setup: true, run: (*CLI).usersDeactivate},
		{path: []string{"users", "edit"}, args: "[-as admin] [-name n] [-email e] [-phone p] <username>", help: "ویرایش مشخصات کاربر", setup: true, run: (*CLI).usersEdit},
		{path: []string{"users", "activate"}, args: "[-as admin] <username>", help: "فعال کردن کاربر", setup: true, run: (*CLI).usersActivate},
		{path: []string{"seed"}, args: "<file.yaml>", help: "وارد کردن کاربران نمونه در پایگاه داده خالی", run: (*CLI).seed},
		{path: []string{"migrate"}, help: "اعمال تغییرات طرح پایگاه داده", run: (*CLI).migrate},
	}
}

// Run dispatches args (without the program name) to a command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.usage()
		return ErrUsage
	}
	if slices.Contains([]string{"help", "-h", "-help", "--help"}, args[0]) {
		c.usage()
		return nil
	}

	cmd, rest, ok := lookup(args)
	if !ok {
		c.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, strings.Join(args, " "))
	}

	name := strings.Join(cmd.path, " ")
	ctx = slogx.WithCommand(ctx, name)
	slogx.FromContext(ctx).Debug("running command")

	if cmd.setup {
		if err := c.ensureAdmin(ctx); err != nil {
			return err
		}
	}
	return cmd.run(c, ctx, rest)
}

func lookup(args []string) (command, []string, bool) {
	for _, cmd := range commandTable() {
		if len(args) >= len(cmd.path) && slices.Equal(args[:len(cmd.path)], cmd.path) {
			return cmd, args[len(cmd.path):], true
		}
	}
	return command{}, nil, false
}

func (c *CLI) usage() {
	fmt.Fprintln(c.Err, "usage: kagan <command> [flags]")
	fmt.Fprintln(c.Err)
	for _, cmd := range commandTable() {
		fmt.Fprintf(c.Err, "  %-18s %s\n", strings.Join(cmd.path, " "), cmd.args)
		fmt.Fprintf(c.Err, "  %-18s %s\n", "", cmd.help)
	}
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.Err)
	return fs
}

func (c *CLI) ensureAdmin(ctx context.Context) error {
	if c.Bootstrap == nil {
		return nil
	}
	res, err := c.Bootstrap.EnsureAdmin(ctx)
	if err != nil || res == nil {
		return err
	}

	fmt.Fprintf(c.Out, "حساب مدیر سیستم ایجاد شد: %s\n", res.User.Username)
	if res.GeneratedPassword {
		fmt.Fprintf(c.Out, "رمز عبور موقت: %s\n", res.Password)
		fmt.Fprintln(c.Out, "این رمز فقط یک بار نمایش داده می‌شود؛ پس از ورود آن را تغییر دهید.")
	}
	return nil
}

// credentials prompts for whatever the caller did not supply on the command line.
func (c *CLI) credentials(username string) (string, string, error) {
	var err error
	if username == "" {
		username, err = c.Prompter.Prompt("نام کاربری: ")
		if err != nil {
			return "", "", err
		}
	}
	password, err := c.Prompter.PromptSecret("رمز عبور: ")
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(username), password, nil
}

// signIn authenticates the operator and tags ctx with their username.
func (c *CLI) signIn(ctx context.Context, username string) (domain.User, string, context.Context, error) {
	username, password, err := c.credentials(username)
	if err != nil {
		return domain.User{}, "", ctx, err
	}
	user, err := c.Auth.Authenticate(ctx, username, password)
	if err != nil {
		return domain.User{}, "", ctx, err
	}
	return user, password, slogx.WithActor(ctx, user.Username), nil
}

// signInWith authenticates the operator and requires the given capability.
func (c *CLI) signInWith(ctx context.Context, username string, capability service.Capability) (domain.User, context.Context, error) {
	user, _, ctx, err := c.signIn(ctx, username)
	if err != nil {
		return domain.User{}, ctx, err
	}
	if err := service.Require(user, capability); err != nil {
		slogx.FromContext(ctx).Warn("permission denied", slog.String("capability", string(capability)))
		return domain.User{}, ctx, err
	}
	return user, ctx, nil
}

func (c *CLI) newPassword() (string, error) {
	pw, err := c.Prompter.PromptSecret("رمز عبور جدید: ")
	if err != nil {
		return "", err
	}
	confirm, err := c.Prompter.PromptSecret("تکرار رمز عبور جدید: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errPasswordMismatch
	}
	return pw, nil
}

func (c *CLI) login(ctx context.Context, args []string) error {
	fs := c.flagSet("login")
	username := fs.String("u", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, _, _, err := c.signIn(ctx, *username)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "خوش آمدید، %s (%s)\n", user.DisplayName, user.Role.Label())
	fmt.Fprintln(c.Out, "دسترسی‌ها:")
	for _, capability := range service.Capabilities() {
		if service.Can(user, capability) {
			fmt.Fprintf(c.Out, "  - %s\n", capability)
		}
	}
	return nil
}

func (c *CLI) passwd(ctx context.Context, args []string) error {
	fs := c.flagSet("passwd")
	username := fs.String("u", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, current, ctx, err := c.signIn(ctx, *username)
	if err != nil {
		return err
	}
	pw, err := c.newPassword()
	if err != nil {
		return err
	}
	if err := c.Auth.ChangePassword(ctx, user.ID, current, pw); err != nil {
		return err
	}

	fmt.Fprintln(c.Out, "رمز عبور با موفقیت تغییر کرد")
	return nil
}

func (c *CLI) seed(ctx context.Context, args []string) error {
	if len(args) != 1 {
		c.usage()
		return ErrUsage
	}

	sf, err := service.LoadSeedFile(args[0])
	if err != nil {
		return err
	}
	n, err := c.Seeder.Seed(ctx, sf)
	if err != nil {
		return err
	}

	if n == 0 {
		fmt.Fprintln(c.Out, "کاربران از قبل وجود دارند؛ چیزی وارد نشد")
		return nil
	}
	fmt.Fprintf(c.Out, "%d کاربر ایجاد شد\n", n)
	return nil
}

func (c *CLI) migrate(ctx context.Context, _ []string) error {
	before, err := c.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := c.Store.ApplyMigrations(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	after, err := c.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	slogx.FromContext(ctx).Info("database migrations applied",
		slog.Uint64("from", uint64(before)),
		slog.Uint64("to", uint64(after)),
	)
	if before == after {
		fmt.Fprintf(c.Out, "پایگاه داده به‌روز است (نسخه %d)\n", after)
		return nil
	}
	fmt.Fprintf(c.Out, "طرح پایگاه داده از نسخه %d به نسخه %d ارتقا یافت\n", before, after)
	return nil
}

// ManagesSchema reports whether args run the migrate command, which must see
// the database before any automatic migration.
func ManagesSchema(args []string) bool {
	cmd, _, ok := lookup(args)
	return ok && slices.Equal(cmd.path, []string{"migrate"})
}
