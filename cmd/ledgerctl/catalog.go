package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/fiscal-ledger/internal/catalog"
	"github.com/angelmondragon/fiscal-ledger/internal/inventory"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
)

func newProductCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the product catalog",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := catalog.ProductInput{Name: args[0]}
			var err error
			input.Category, _ = cmd.Flags().GetString("category")
			input.InternalCode, _ = cmd.Flags().GetString("code")
			input.OnHand, _ = cmd.Flags().GetInt("on-hand")
			if input.PurchasePrice, err = parseDecimalFlag(cmd, "purchase-price"); err != nil {
				return err
			}
			if input.SalePrice, err = parseDecimalFlag(cmd, "sale-price"); err != nil {
				return err
			}
			product, err := e.svcs.Catalog.CreateProduct(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd, product)
		},
	}
	add.Flags().String("category", "", "category name")
	add.Flags().String("code", "", "internal code")
	add.Flags().Int("on-hand", 0, "opening stock")
	add.Flags().String("purchase-price", "", "reference purchase price")
	add.Flags().String("sale-price", "", "reference sale price")

	lowStock := &cobra.Command{
		Use:   "low-stock",
		Short: "List products at or below a stock threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			products, err := e.svcs.Catalog.LowStock(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, products)
		},
	}
	lowStock.Flags().Int("limit", catalog.DefaultLowStockLimit, "stock threshold")

	cmd.AddCommand(add, lowStock)
	return cmd
}

func newCategoryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage product categories",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category, returning the existing id when present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := e.svcs.Categories.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"id": id})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a category and the products filed under it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.svcs.Categories.Rename(cmd.Context(), id, args[1])
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			return e.svcs.Categories.Delete(cmd.Context(), id, force)
		},
	}
	remove.Flags().Bool("force", false, "detach products still using the category")

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := e.svcs.Categories.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}

	cmd.AddCommand(add, rename, remove, list)
	return cmd
}

func newInventoryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Adjust stock by internal product code",
	}
	cmd.AddCommand(
		newAdjustCmd(e, "intake", enums.MovementTypeIntake),
		newAdjustCmd(e, "withdraw", enums.MovementTypeWithdrawal),
	)
	return cmd
}

func newAdjustCmd(e *env, use string, movement enums.MovementType) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <code> <quantity>",
		Short: "Record a " + movement.String() + " movement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			input := inventory.AdjustInput{Code: args[0], Quantity: qty}
			input.Location, _ = cmd.Flags().GetString("location")
			input.Method, _ = cmd.Flags().GetString("method")

			adjust := e.svcs.Inventory.Intake
			if movement == enums.MovementTypeWithdrawal {
				adjust = e.svcs.Inventory.Withdraw
			}
			mv, err := adjust(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd, mv)
		},
	}
	cmd.Flags().String("location", "", "storage location")
	cmd.Flags().String("method", inventory.DefaultMethod, "how the movement was captured")
	return cmd
}
