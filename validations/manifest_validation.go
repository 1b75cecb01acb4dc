package validations

import (
	"context"
	"fmt"
	"path"
	"regexp"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	domainScraper "github.com/AzielCF/az-bot/domains/scraper"
	pkgError "github.com/AzielCF/az-bot/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var nameRule = validation.Match(regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)).Error("must be lowercase letters, digits, '.', '_' or '-'")

var knownTypes = []any{
	string(domainMessage.TypeText), string(domainMessage.TypeImage), string(domainMessage.TypeVideo),
	string(domainMessage.TypeAudio), string(domainMessage.TypeDocument), string(domainMessage.TypeSticker),
	string(domainMessage.TypeProtocol), string(domainMessage.TypeReaction), string(domainMessage.TypeContact),
	string(domainMessage.TypeLocation), string(domainMessage.TypePoll), string(domainMessage.TypeButtonReply),
	string(domainMessage.TypeListReply), string(domainMessage.TypeUnknown),
}

var compilesRule = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := regexp.Compile(s); err != nil {
		return fmt.Errorf("invalid regular expression: %v", err)
	}
	return nil
})

var globRule = validation.By(func(value any) error {
	s, _ := value.(string)
	if _, err := path.Match(s, ""); err != nil {
		return fmt.Errorf("invalid host pattern %q", s)
	}
	return nil
})

func ValidatePluginManifest(ctx context.Context, m domainPlugin.Manifest) error {
	err := validation.ValidateStructWithContext(ctx, &m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 64), nameRule),
		validation.Field(&m.Handler, validation.Required, nameRule),
		validation.Field(&m.Commands, validation.Each(validation.Required, validation.Length(1, 32))),
		validation.Field(&m.Pattern, compilesRule),
		validation.Field(&m.Types, validation.Each(validation.In(knownTypes...))),
		validation.Field(&m.Scope, validation.In(domainPlugin.ScopeAny, domainPlugin.ScopeGroup, domainPlugin.ScopePrivate)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateScraperManifest(ctx context.Context, m domainScraper.Manifest) error {
	err := validation.ValidateStructWithContext(ctx, &m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 64), nameRule),
		validation.Field(&m.Handler, validation.Required, nameRule),
		validation.Field(&m.Hosts, validation.Required, validation.Each(validation.Required, globRule)),
		validation.Field(&m.Timeout, validation.Min(0)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
