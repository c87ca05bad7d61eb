package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/internal/kagan/service"
)

func (c *CLI) usersList(ctx context.Context, args []string) error {
	fs := c.flagSet("users list")
	actor := fs.String("as", "", "acting administrator")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, ctx, err := c.signInWith(ctx, *actor, service.CapEditUsers)
	if err != nil {
		return err
	}
	users, err := c.Users.ListUsers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tNAME\tROLE\tACTIVE\tEMAIL\tPHONE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
			u.Username, u.DisplayName, u.Role, u.Active, dash(u.Email), dash(u.Phone),
			u.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (c *CLI) usersAdd(ctx context.Context, args []string) error {
	fs := c.flagSet("users add")
	actor := fs.String("as", "", "acting administrator")
	username := fs.String("username", "", "new user's username")
	name := fs.String("name", "", "display name")
	role := fs.String("role", string(domain.DefaultRole), "one of "+roleNames())
	email := fs.String("email", "", "e-mail address")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, ctx, err := c.signInWith(ctx, *actor, service.CapEditUsers)
	if err != nil {
		return err
	}
	if *username == "" {
		if *username, err = c.Prompter.Prompt("نام کاربری جدید: "); err != nil {
			return err
		}
	}
	if *name == "" {
		if *name, err = c.Prompter.Prompt("نام نمایشی: "); err != nil {
			return err
		}
	}
	pw, err := c.newPassword()
	if err != nil {
		return err
	}

	user, err := c.Auth.CreateUser(ctx, service.NewUser{
		Username:    *username,
		Password:    pw,
		DisplayName: *name,
		Role:        domain.Role(*role),
		Email:       *email,
		Phone:       *phone,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "کاربر %s با نقش %s ایجاد شد\n", user.Username, user.Role.Label())
	return nil
}

// target parses the shared [-as admin] <username> form.
func (c *CLI) target(name string, args []string) (actor, username string, err error) {
	fs := c.flagSet(name)
	as := fs.String("as", "", "acting administrator")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if fs.NArg() != 1 {
		c.usage()
		return "", "", ErrUsage
	}
	return *as, fs.Arg(0), nil
}

func (c *CLI) usersReset(ctx context.Context, args []string) error {
	actor, username, err := c.target("users reset", args)
	if err != nil {
		return err
	}

	_, ctx, err = c.signInWith(ctx, actor, service.CapEditUsers)
	if err != nil {
		return err
	}
	user, err := c.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	pw, err := c.newPassword()
	if err != nil {
		return err
	}
	if err := c.Auth.ResetPassword(ctx, user.ID, pw); err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "رمز عبور %s بازنشانی شد\n", user.Username)
	return nil
}

func (c *CLI) usersDeactivate(ctx context.Context, args []string) error {
	return c.setActive(ctx, "users deactivate", args, false)
}

func (c *CLI) usersActivate(ctx context.Context, args []string) error {
	return c.setActive(ctx, "users activate", args, true)
}

func (c *CLI) setActive(ctx context.Context, name string, args []string, active bool) error {
	actor, username, err := c.target(name, args)
	if err != nil {
		return err
	}

	admin, ctx, err := c.signInWith(ctx, actor, service.CapEditUsers)
	if err != nil {
		return err
	}
	user, err := c.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	if active {
		err = c.Users.Activate(ctx, user.ID)
	} else {
		if user.ID == admin.ID {
			return errSelfDeactivate
		}
		err = c.Users.Deactivate(ctx, user.ID)
	}
	if err != nil {
		return err
	}

	state := "غیرفعال"
	if active {
		state = "فعال"
	}
	fmt.Fprintf(c.Out, "کاربر %s %s شد\n", user.Username, state)
	return nil
}

func (c *CLI) usersEdit(ctx context.Context, args []string) error {
	fs := c.flagSet("users edit")
	actor := fs.String("as", "", "acting administrator")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "e-mail address, empty to clear")
	phone := fs.String("phone", "", "phone number, empty to clear")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		c.usage()
		return ErrUsage
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	_, ctx, err := c.signInWith(ctx, *actor, service.CapEditUsers)
	if err != nil {
		return err
	}
	user, err := c.Users.GetUserByUsername(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	// Only the flags given on the command line change
	p := domain.Profile{DisplayName: user.DisplayName, Email: user.Email, Phone: user.Phone}
	if set["name"] {
		p.DisplayName = *name
	}
	if set["email"] {
		p.Email = *email
	}
	if set["phone"] {
		p.Phone = *phone
	}
	if err := c.Users.UpdateProfile(ctx, user.ID, p); err != nil {
		return err
	}

	updated, err := c.Users.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "مشخصات %s به‌روز شد: %s، %s، %s\n",
		updated.Username, updated.DisplayName, dash(updated.Email), dash(updated.Phone))
	return nil
}

func roleNames() string {
	names := make([]string, 0, len(domain.Roles()))
	for _, r := range domain.Roles() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
