package app

// Command はtaskmanバイナリのサブコマンド。
type Command string

const (
	// CommandServe はタスクAPIサーバーを起動する。引数なしの場合の既定。
	CommandServe Command = "serve"
	// CommandMigrate はusers/tasksスキーマのマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中のサーバーの/healthを確認する。
	// distrolessイメージにはcurlがないため、DockerのHEALTHCHECKから呼び出す。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数の先頭をサブコマンドとして解釈する。
// 引数がない場合はserveを返す。未知のサブコマンドはserveとして扱い、knownにfalseを返す。
func ParseCommand(args []string) (cmd Command, known bool) {
	if len(args) == 0 {
		return CommandServe, true
	}

	switch c := Command(args[0]); c {
	case CommandServe, CommandMigrate, CommandHealthcheck:
		return c, true
	default:
		return CommandServe, false
	}
}
