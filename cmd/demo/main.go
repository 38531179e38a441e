// Command demo walks through the portier API against a running server:
// signup, login, an anonymous rejection, an authenticated request, and
// finally deactivation invalidating an outstanding token.
//
// Start a server first, e.g.:
//
//	PORTIER_SECRET=$(head -c 32 /dev/urandom | base64) go run ./cmd/server
//
// Then:
//
//	go run ./cmd/demo -addr http://localhost:8080
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/portier-auth/portier/pkg/api"
	"github.com/portier-auth/portier/pkg/debug"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "portier server address")
	flag.Parse()

	if err := run(*addr); err != nil {
		fmt.Fprintln(os.Stderr, "demo failed:", err)
		os.Exit(1)
	}
}

func run(addr string) error {
	email := fmt.Sprintf("demo-%d@example.com", time.Now().UnixNano())
	password := "correct-horse-battery"

	fmt.Println("=== portier demo ===")
	fmt.Println()

	// 1. Signup.
	var user api.User
	status, err := call(http.MethodPost, addr+"/v1/signup", "", api.SignupRequest{
		Name:     "Demo User",
		Email:    email,
		Password: password,
	}, &user)
	if err != nil {
		return err
	}
	fmt.Printf("[1] Signup %s -> %d, id=%s\n", email, status, user.ID)

	// 2. Login.
	var login api.LoginResponse
	status, err = call(http.MethodPost, addr+"/v1/login", "", api.LoginRequest{
		Email:    email,
		Password: password,
	}, &login)
	if err != nil {
		return err
	}
	fmt.Printf("[2] Login -> %d, token=%s\n", status, debug.Truncate(login.Token, 24))

	// 3. Anonymous request to a protected route is a bare 401.
	status, err = call(http.MethodGet, addr+"/v1/users", "", nil, nil)
	if err != nil {
		return err
	}
	fmt.Printf("[3] Anonymous GET /v1/users -> %d\n", status)

	// 4. The same request with the token.
	var list api.UserList
	status, err = call(http.MethodGet, addr+"/v1/users", login.Token, nil, &list)
	if err != nil {
		return err
	}
	fmt.Printf("[4] Authenticated GET /v1/users -> %d, %d user(s)\n", status, len(list.Users))

	// 5. Wrong password is indistinguishable from an unknown account.
	var errResp api.ErrorResponse
	status, err = call(http.MethodPost, addr+"/v1/login", "", api.LoginRequest{
		Email:    email,
		Password: "wrong",
	}, &errResp)
	if err != nil {
		return err
	}
	fmt.Printf("[5] Login with wrong password -> %d, %q\n", status, errResp.Error.Message)
	status, err = call(http.MethodPost, addr+"/v1/login", "", api.LoginRequest{
		Email:    "nobody@example.com",
		Password: "wrong",
	}, &errResp)
	if err != nil {
		return err
	}
	fmt.Printf("    Login with unknown account -> %d, %q\n", status, errResp.Error.Message)

	// 6. Deactivation invalidates the token immediately, before expiry.
	status, err = call(http.MethodDelete, addr+"/v1/users/"+user.ID, login.Token, nil, nil)
	if err != nil {
		return err
	}
	fmt.Printf("[6] Deactivate -> %d\n", status)
	status, err = call(http.MethodGet, addr+"/v1/users", login.Token, nil, nil)
	if err != nil {
		return err
	}
	fmt.Printf("    Same token after deactivation -> %d\n", status)

	fmt.Println()
	fmt.Println("=== demo complete ===")
	return nil
}

// call performs an HTTP request and optionally decodes the JSON response
// body into out. A nil out discards the body.
func call(method, url, bearer string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
