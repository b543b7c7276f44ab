package document

import (
	"context"
	"strings"

	"github.com/minios-linux/pagetrans/translate"
)

type upper struct{}

func (upper) Translate(_ context.Context, req translate.Request) translate.Result {
	return translate.Result{Text: strings.ToUpper(req.Text), Translated: true}
}
