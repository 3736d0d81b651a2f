package validate_test

import (
	"testing"

	"github.com/treeledger/blockchain/business/sys/validate"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

type sendRequest struct {
	To     string `json:"to" validate:"required,account"`
	Amount string `json:"amount" validate:"required,positive"`
	Name   string `json:"name" validate:"omitempty,max=8"`
}

func Test_Check(t *testing.T) {
	const account = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"

	tt := []struct {
		name   string
		req    sendRequest
		fields []string
	}{
		{name: "valid", req: sendRequest{To: account, Amount: "1.5"}},
		{name: "missing", req: sendRequest{}, fields: []string{"to", "amount"}},
		{name: "account", req: sendRequest{To: "bill", Amount: "1"}, fields: []string{"to"}},
		{name: "zero", req: sendRequest{To: account, Amount: "0"}, fields: []string{"amount"}},
		{name: "long", req: sendRequest{To: account, Amount: "1", Name: "a-very-long-name"}, fields: []string{"name"}},
	}

	t.Log("Given the need to validate request models.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				err := validate.Check(tst.req)

				if len(tst.fields) == 0 {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
					return
				}

				if !validate.IsFieldErrors(err) {
					t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get field errors.", success, testID)

				fields := validate.GetFieldErrors(err).Fields()
				if len(fields) != len(tst.fields) {
					t.Fatalf("\t%s\tTest %d:\tShould get %d field errors: %v", failed, testID, len(tst.fields), fields)
				}
				for _, name := range tst.fields {
					if fields[name] == "" {
						t.Fatalf("\t%s\tTest %d:\tShould report the %q field: %v", failed, testID, name, fields)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould report the failing fields by JSON name.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}
