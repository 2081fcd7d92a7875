package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/cartstate"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/locale"
	"github.com/utafrali/storefront/internal/storefront"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

const usage = `usage: storefront <command> [args]

cart commands:
  cart                          show the cart
  add <product_id> [-variant id] [-qty n]
  qty <item_id> <delta>         change an item's quantity by delta
  remove <item_id>
  coupon <code>

catalog commands:
  products [-category id] [-vendor id] [-search q] [-page n] [-per-page n]
  product <id>
  categories | slides | orders | addresses | me | coupons
  vendor <id>

session:
  locale [tag]                  show or switch the preferred locale
  serve                         run the diagnostics server
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("storefront", cfg.LogLevel)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "serve" {
		log.Info("starting storefront diagnostics",
			slog.String("environment", cfg.Environment),
			slog.String("api", cfg.APIBaseURL),
			slog.Int("http_port", cfg.HTTPPort),
		)
		if err := application.Run(ctx); err != nil {
			log.Error("application error", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	err = run(ctx, application, cmd, args, os.Stdout)
	_ = application.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", apperrors.Message(err))
		log.Debug("command failed", slog.String("command", cmd), slog.String("error", err.Error()))
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

// run executes one command and prints its result as canonical JSON.
func run(ctx context.Context, a *app.App, cmd string, args []string, out io.Writer) error {
	client := a.Client()
	cart := a.Cart()

	var result any
	switch cmd {
	case "cart":
		if err := cart.Refresh(ctx); err != nil {
			return err
		}
		result = cart.Cart()

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		variant := fs.Int64("variant", 0, "variant id")
		qty := fs.Int("qty", 1, "quantity")
		productID, err := leadingID(fs, args)
		if err != nil {
			return err
		}
		if err := cart.AddItem(ctx, cartstate.AddItemInput{ProductID: productID, VariantID: *variant, Quantity: *qty}); err != nil {
			return err
		}
		result = cart.Cart()

	case "qty":
		if len(args) != 2 {
			return usageError("qty needs <item_id> <delta>")
		}
		itemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError("delta must be an integer")
		}
		if err := cart.Refresh(ctx); err != nil {
			return err
		}
		if err := cart.ChangeQuantity(ctx, itemID, delta); err != nil {
			return err
		}
		result = cart.Cart()

	case "remove":
		if len(args) != 1 {
			return usageError("remove needs <item_id>")
		}
		itemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := cart.Refresh(ctx); err != nil {
			return err
		}
		if err := cart.RemoveItem(ctx, itemID); err != nil {
			return err
		}
		result = cart.Cart()

	case "coupon":
		if len(args) != 1 {
			return usageError("coupon needs <code>")
		}
		if err := cart.Refresh(ctx); err != nil {
			return err
		}
		if err := cart.ApplyCoupon(ctx, args[0]); err != nil {
			return err
		}
		result = cart.Cart()

	case "products":
		fs := flag.NewFlagSet("products", flag.ContinueOnError)
		var q storefront.ProductQuery
		fs.Int64Var(&q.CategoryID, "category", 0, "category id")
		fs.Int64Var(&q.VendorID, "vendor", 0, "vendor id")
		fs.StringVar(&q.Search, "search", "", "search text")
		fs.IntVar(&q.Page, "page", 0, "page")
		fs.IntVar(&q.PerPage, "per-page", 0, "page size")
		if err := fs.Parse(args); err != nil {
			return usageError(err.Error())
		}
		products, err := client.Products(ctx, q)
		if err != nil {
			return err
		}
		result = products

	case "product", "vendor":
		if len(args) != 1 {
			return usageError(cmd + " needs <id>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if cmd == "product" {
			result, err = client.Product(ctx, id)
		} else {
			result, err = client.Vendor(ctx, id)
		}
		if err != nil {
			return err
		}

	case "categories", "slides", "orders", "addresses", "me", "coupons":
		var err error
		result, err = catalogList(ctx, client, cmd)
		if err != nil {
			return err
		}

	case "locale":
		locales := a.Locales()
		if len(args) == 1 {
			loc, err := locale.Parse(args[0])
			if err != nil {
				return usageError(err.Error())
			}
			if loc != locales.Current() && !locales.Set(loc) {
				return apperrors.InvalidInput("unsupported locale: " + loc.String())
			}
		}
		result = map[string]any{
			"current":   locales.Current(),
			"supported": locales.Supported(),
			"rtl":       locales.Current().IsRTL(),
		}

	default:
		return usageError("unknown command: " + cmd)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func catalogList(ctx context.Context, client *storefront.Client, cmd string) (any, error) {
	switch cmd {
	case "categories":
		return client.Categories(ctx)
	case "slides":
		return client.Slides(ctx)
	case "orders":
		return client.Orders(ctx)
	case "addresses":
		return client.Addresses(ctx)
	case "me":
		return client.Me(ctx)
	default:
		return client.Coupons(ctx)
	}
}

// leadingID parses a positional id followed by flags, e.g. "12 -qty 2".
func leadingID(fs *flag.FlagSet, args []string) (int64, error) {
	if len(args) == 0 {
		return 0, usageError(fs.Name() + " needs <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return 0, err
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 0, usageError(err.Error())
	}
	return id, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError("invalid id: " + s)
	}
	return id, nil
}
