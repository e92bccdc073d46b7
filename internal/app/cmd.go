package app

import (
	"errors"
	"fmt"
	"strings"
)

// Command はteamboardバイナリのサブコマンド。
type Command string

const (
	// CommandServe はAPIサーバーを起動する。引数なしの場合の既定。
	CommandServe Command = "serve"
	// CommandMigrate は埋め込みマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はローカルの/healthを叩いて終了コードで結果を返す。
	// distrolessイメージのHEALTHCHECKから呼ばれるため、DB設定を読まない。
	CommandHealthcheck Command = "healthcheck"
)

// ErrUnknownCommand は未定義のサブコマンドが指定された場合のエラー。
var ErrUnknownCommand = errors.New("unknown command")

// commands はサブコマンドと説明の一覧。Usageの表示順を兼ねる。
var commands = []struct {
	cmd  Command
	desc string
}{
	{CommandServe, "チームボードAPIサーバーを起動する（既定）"},
	{CommandMigrate, "データベースマイグレーションを適用する"},
	{CommandHealthcheck, "稼働中のサーバーのヘルスチェックを行う"},
}

// ParseCommand は先頭の引数からサブコマンドを決める。
// 引数がない場合はCommandServeを返す。
// 打ち間違いでサーバーが起動しないよう、未定義の名前はErrUnknownCommandとする。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return CommandServe, nil
	}
	for _, c := range commands {
		if string(c.cmd) == args[0] {
			return c.cmd, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
}

// Usage はサブコマンドの一覧を返す。
func Usage() string {
	var b strings.Builder
	b.WriteString("usage: teamboard [command]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-12s %s\n", c.cmd, c.desc)
	}
	return b.String()
}
