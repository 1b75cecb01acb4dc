package builtin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	domainDatabase "github.com/AzielCF/az-bot/domains/database"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	"github.com/AzielCF/az-bot/plugins"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var errAlreadyRegistered = errors.New("already registered")

type register struct {
	now func() time.Time
}

func NewRegister(domainPlugin.Manifest) (plugins.Handler, error) {
	return &register{now: time.Now}, nil
}

// Handle stores the sender under users as "name.age".
func (r *register) Handle(ctx context.Context, pc *plugins.Context) error {
	if pc.DB == nil {
		return fmt.Errorf("register: database unavailable")
	}
	name, age, err := parseRegistration(pc.Msg.Text)
	if err != nil {
		return pc.Reply(ctx, fmt.Sprintf("Usage: %s%s name.age\n%s", pc.Msg.Prefix, pc.Msg.Command, err))
	}

	sender := pc.Msg.Sender
	err = pc.DB.Update(func(doc *domainDatabase.Document) error {
		if user, ok := doc.Users[sender]; ok {
			if reg, _ := user["registered"].(bool); reg {
				return errAlreadyRegistered
			}
		}
		user := doc.Users[sender]
		if user == nil {
			user = domainDatabase.Record{}
		}
		user["name"] = name
		user["age"] = age
		user["registered"] = true
		user["regTime"] = r.now().UnixMilli()
		doc.Users[sender] = user
		return nil
	})
	if errors.Is(err, errAlreadyRegistered) {
		return pc.Reply(ctx, "You are already registered.")
	}
	if err != nil {
		return err
	}
	pc.Log.Infof("[REGISTER] %s registered as %s", sender, name)
	return pc.Reply(ctx, fmt.Sprintf("Registered as *%s* (%d).", name, age))
}

func parseRegistration(text string) (string, int, error) {
	name, rawAge, _ := strings.Cut(strings.TrimSpace(text), ".")
	name = strings.TrimSpace(name)
	age, convErr := strconv.Atoi(strings.TrimSpace(rawAge))

	err := validation.Errors{
		"name": validation.Validate(name, validation.Required, validation.Length(1, 32)),
		"age": validation.Validate(rawAge, validation.Required, validation.By(func(any) error {
			if convErr != nil {
				return errors.New("must be a number")
			}
			return validation.Validate(age, validation.Min(5), validation.Max(100))
		})),
	}.Filter()
	if err != nil {
		return "", 0, err
	}
	return name, age, nil
}
