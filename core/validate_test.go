package core

import "testing"

func TestValidateSignUp(t *testing.T) {
	cases := []struct {
		name string
		cred Credential
		want map[string]string
	}{
		{
			name: "valid",
			cred: Credential{Name: "Ada", Email: "ada@example.com", Password: "sec"},
			want: nil,
		},
		{
			name: "short name",
			cred: Credential{Name: "ab", Email: "ada@example.com", Password: "sec"},
			want: map[string]string{"name": "name_too_short"},
		},
		{
			name: "name is trimmed before measuring",
			cred: Credential{Name: "  a  ", Email: "ada@example.com", Password: "sec"},
			want: map[string]string{"name": "name_too_short"},
		},
		{
			name: "missing at sign",
			cred: Credential{Name: "Ada", Email: "ada.example.com", Password: "sec"},
			want: map[string]string{"email": "invalid_email"},
		},
		{
			name: "missing domain dot",
			cred: Credential{Name: "Ada", Email: "ada@example", Password: "sec"},
			want: map[string]string{"email": "invalid_email"},
		},
		{
			name: "short password",
			cred: Credential{Name: "Ada", Email: "ada@example.com", Password: "ab"},
			want: map[string]string{"password": "password_too_short"},
		},
		{
			name: "everything wrong",
			cred: Credential{},
			want: map[string]string{
				"name":     "name_too_short",
				"email":    "invalid_email",
				"password": "password_too_short",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fe := Validate(FormSignUp, tc.cred)
			if tc.want == nil {
				if fe != nil {
					t.Fatalf("expected no errors, got %v", fe)
				}
				return
			}
			if len(fe) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, fe)
			}
			for field, code := range tc.want {
				if fe[field] != code {
					t.Fatalf("field %s: expected %s, got %s", field, code, fe[field])
				}
			}
		})
	}
}

func TestValidateSignInIgnoresName(t *testing.T) {
	fe := Validate(FormSignIn, Credential{Email: "ada@example.com", Password: "sec"})
	if fe != nil {
		t.Fatalf("expected no errors, got %v", fe)
	}
}

func TestFieldErrorsErrorStringIsStable(t *testing.T) {
	fe := FieldErrors{"password": "password_too_short", "email": "invalid_email"}
	want := "validation failed: email: invalid_email, password: password_too_short"
	if fe.Error() != want {
		t.Fatalf("expected %q, got %q", want, fe.Error())
	}
}
