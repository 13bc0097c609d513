package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/maynagashev/bookstore/internal/api"
	"github.com/maynagashev/bookstore/models"
)

const (
	serverURLEnvVar  = "BOOKSTORE_SERVER_URL"
	tokenEnvVar      = "BOOKSTORE_TOKEN"
	defaultServerURL = "http://localhost:8080"
	commandTimeout   = time.Minute
	filePermissions  = 0o644
)

// Переменные для версии и даты сборки, устанавливаются через ldflags.
var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New(`использование: bookctl [-server URL] [-token TOKEN] <команда> [аргументы]

команды:
  signup <имя> <email> <пароль>
  login <email> <пароль>
  list [-keyword K] [-page N]
  get <id>
  create -title T -description D [-author A] [-price P] [-category C]
  update <id> [-description D] [-author A] [-price P]
  delete <id>
  cover-upload <id> <файл>
  cover-download <id> <файл>
  version`)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	err := run(ctx, os.Args[1:], os.Stdout, api.NewHTTPClient)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run разбирает аргументы и выполняет одну команду. newClient подменяется в тестах.
func run(ctx context.Context, args []string, out io.Writer, newClient func(string) api.Client) error {
	fs := flag.NewFlagSet("bookctl", flag.ContinueOnError)
	serverURL := fs.String("server", envOr(serverURLEnvVar, defaultServerURL), "URL сервера (env: "+serverURLEnvVar+")")
	token := fs.String("token", os.Getenv(tokenEnvVar), "JWT токен (env: "+tokenEnvVar+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	client := newClient(*serverURL)
	if *token != "" {
		client.SetAuthToken(*token)
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	slog.Debug("Выполнение команды", slog.String("command", cmd), slog.String("server", *serverURL))

	switch cmd {
	case "signup":
		if len(cmdArgs) != 3 {
			return errUsage
		}
		tok, err := client.SignUp(ctx, cmdArgs[0], cmdArgs[1], cmdArgs[2])
		if err != nil {
			return err
		}
		return printJSON(out, models.TokenResponse{AccessToken: tok})
	case "login":
		if len(cmdArgs) != 2 {
			return errUsage
		}
		tok, err := client.Login(ctx, cmdArgs[0], cmdArgs[1])
		if err != nil {
			return err
		}
		return printJSON(out, models.TokenResponse{AccessToken: tok})
	case "list":
		return runList(ctx, client, cmdArgs, out)
	case "get":
		if len(cmdArgs) != 1 {
			return errUsage
		}
		book, err := client.GetBook(ctx, cmdArgs[0])
		if err != nil {
			return err
		}
		return printJSON(out, book)
	case "create":
		return runCreate(ctx, client, cmdArgs, out)
	case "update":
		return runUpdate(ctx, client, cmdArgs, out)
	case "delete":
		if len(cmdArgs) != 1 {
			return errUsage
		}
		if err := client.DeleteBook(ctx, cmdArgs[0]); err != nil {
			return err
		}
		return printJSON(out, models.DeleteBookResponse{Deleted: true})
	case "cover-upload":
		if len(cmdArgs) != 2 {
			return errUsage
		}
		return runCoverUpload(ctx, client, cmdArgs[0], cmdArgs[1], out)
	case "cover-download":
		if len(cmdArgs) != 2 {
			return errUsage
		}
		return runCoverDownload(ctx, client, cmdArgs[0], cmdArgs[1], out)
	case "version":
		_, err := fmt.Fprintf(out, "Bookstore CLI %s (%s)\n", version, buildDate)
		return err
	default:
		return fmt.Errorf("неизвестная команда %q\n%w", cmd, errUsage)
	}
}

func runList(ctx context.Context, client api.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	keyword := fs.String("keyword", "", "Подстрока в названии")
	page := fs.Int("page", 1, "Номер страницы")
	if err := fs.Parse(args); err != nil {
		return err
	}
	books, err := client.ListBooks(ctx, *keyword, *page)
	if err != nil {
		return err
	}
	return printJSON(out, books)
}

func runCreate(ctx context.Context, client api.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	title := fs.String("title", "", "Название")
	description := fs.String("description", "", "Описание")
	author := fs.String("author", "", "Автор")
	price := fs.String("price", "", "Цена")
	category := fs.String("category", "", "Жанр: adventure, classics, crime, fantasy")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := models.CreateBookRequest{Title: *title, Description: *description, Author: optional(*author)}
	var err error
	if req.Price, err = parsePrice(*price); err != nil {
		return err
	}
	if *category != "" {
		c := models.Category(*category)
		req.Category = &c
	}

	book, err := client.CreateBook(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, book)
}

func runUpdate(ctx context.Context, client api.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	id := args[0]

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	description := fs.String("description", "", "Описание")
	author := fs.String("author", "", "Автор")
	price := fs.String("price", "", "Цена")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	req := models.UpdateBookRequest{Description: optional(*description), Author: optional(*author)}
	var err error
	if req.Price, err = parsePrice(*price); err != nil {
		return err
	}

	book, err := client.UpdateBook(ctx, id, req)
	if err != nil {
		return err
	}
	return printJSON(out, book)
}

func runCoverUpload(ctx context.Context, client api.Client, id, path string, out io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла обложки: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("ошибка чтения размера файла: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		// Расширение неизвестно, определяем по содержимому
		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		contentType = http.DetectContentType(head[:n])
		if _, err = file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("ошибка чтения файла обложки: %w", err)
		}
	}

	book, err := client.UploadCover(ctx, id, file, info.Size(), contentType)
	if err != nil {
		return err
	}
	return printJSON(out, book)
}

func runCoverDownload(ctx context.Context, client api.Client, id, path string, out io.Writer) error {
	body, contentType, err := client.DownloadCover(ctx, id)
	if err != nil {
		return err
	}
	defer body.Close()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return fmt.Errorf("ошибка создания файла: %w", err)
	}
	n, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("ошибка сохранения обложки: %w", err)
	}

	_, err = fmt.Fprintf(out, "Сохранено %d байт (%s) в %s\n", n, contentType, path)
	return err
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parsePrice(s string) (*float64, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // Цена не указана
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("некорректная цена %q: %w", s, err)
	}
	return &p, nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
