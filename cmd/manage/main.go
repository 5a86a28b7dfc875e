package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const usage = `usage: manage <command> [flags]

commands:
  migrate       create or update tables
  create-group  -title T -slug S [-description D]
  list-groups
  create-user   -username U -password P [-email E] [-first F] [-last L]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx := context.Background()
	groups := service.NewGroupService(repository.NewGroupRepository(db))

	switch cmd {
	case "migrate":
		// InitDB 已执行迁移
		fmt.Println("ok")
		return nil

	case "create-group":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		var form service.GroupForm
		fs.StringVar(&form.Title, "title", "", "group title")
		fs.StringVar(&form.Slug, "slug", "", "url slug")
		fs.StringVar(&form.Description, "description", "", "description")
		_ = fs.Parse(args)
		g, err := groups.Create(ctx, form)
		if err != nil {
			return describe(err)
		}
		fmt.Printf("created group %d %s\n", g.ID, g.Slug)
		return nil

	case "list-groups":
		list, err := groups.List(ctx)
		if err != nil {
			return err
		}
		for _, g := range list {
			fmt.Printf("%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
		}
		return nil

	case "create-user":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		var form service.SignUpForm
		fs.StringVar(&form.Username, "username", "", "username")
		fs.StringVar(&form.Password1, "password", "", "password")
		fs.StringVar(&form.Email, "email", "", "email")
		fs.StringVar(&form.FirstName, "first", "", "first name")
		fs.StringVar(&form.LastName, "last", "", "last name")
		_ = fs.Parse(args)
		form.Password2 = form.Password1
		// 不签发重置链接，tokens 为空即可
		users := service.NewUserService(repository.NewUserRepository(db), nil)
		u, err := users.SignUp(ctx, form)
		if err != nil {
			return describe(err)
		}
		fmt.Printf("created user %d %s\n", u.ID, u.Username)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// describe 展开表单错误
func describe(err error) error {
	fe, ok := service.AsFormErrors(err)
	if !ok {
		return err
	}
	msgs := make([]error, 0, len(fe))
	for field, msg := range fe {
		msgs = append(msgs, fmt.Errorf("%s: %s", field, msg))
	}
	return errors.Join(msgs...)
}
