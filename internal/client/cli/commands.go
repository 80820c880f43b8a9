package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
)

var errUsage = errors.New("wrong arguments")

// commands lists everything the REPL can run on the App.
func (a *App) commands() []command {
	return []command{
		{name: "login", run: a.Login},
		{name: "logout", auth: true, run: a.Logout},
		{name: "accounts", auth: true, run: a.listAccounts},
		{name: "switch", usage: "switch <account id|personal>", auth: true, run: a.switchAccount},
		{name: "create", usage: "create <account name>", auth: true, run: a.createAccount},
		{name: "members", auth: true, run: a.listMembers},
		{name: "invite", usage: "invite <username>", auth: true, run: a.inviteMember},
		{name: "invites", auth: true, run: a.listInvites},
		{name: "accept", usage: "accept <invitation id>", auth: true, run: a.accept},
		{name: "reject", usage: "reject <invitation id>", auth: true, run: a.reject},
		{name: "notifications", auth: true, run: a.listNotifications},
		{name: "read", usage: "read <notification id>", auth: true, run: a.markRead},
		{name: "readall", auth: true, run: a.markAllRead},
		{name: "transactions", auth: true, run: a.listTransactions},
		{name: "summary", auth: true, run: a.summary},
		{name: "add", usage: "add <income|expense> <amount> [category] [note...]", auth: true, run: a.addTransaction},
		{name: "delete", usage: "delete <transaction id>", auth: true, run: a.deleteTransaction},
		{name: "refresh", auth: true, run: a.refresh},
	}
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *App) listAccounts(ctx context.Context, _ []string) error {
	cur := a.accounts.CurrentAccount()
	tw := a.table()
	fmt.Fprintln(tw, "\tID\tNAME")
	for _, acc := range a.accounts.Accounts() {
		mark := ""
		if acc.ID == cur.ID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, acc.ID, acc.AccountName)
	}
	return tw.Flush()
}

func (a *App) switchAccount(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.accounts.SetCurrentAccount(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Current account:", a.accounts.CurrentAccount().AccountName)
	return nil
}

func (a *App) createAccount(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	acc, err := a.accounts.CreateAccount(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s (%s)\n", acc.AccountName, acc.ID)
	return nil
}

func (a *App) listMembers(ctx context.Context, _ []string) error {
	cur := a.accounts.CurrentAccount()
	if cur.IsPersonal() {
		fmt.Fprintln(a.out, "The personal account has no members")
		return nil
	}
	a.accounts.RefreshCurrentUserMembership(ctx, cur.ID)
	tw := a.table()
	fmt.Fprintln(tw, "ID\tUSER\tROLE\tSTATUS")
	for _, m := range a.accounts.Members() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Username, m.Role, m.Status)
	}
	return tw.Flush()
}

func (a *App) inviteMember(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if !a.accounts.Can(models.ActionManageMembers) {
		return errors.New("only the account owner can invite members")
	}
	perms := models.Permissions{CanAddEntry: true, CanEditOwnEntry: true}
	if err := a.accounts.InviteMember(ctx, a.accounts.CurrentAccount().ID, args[0], perms); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Invited", args[0])
	return nil
}

func (a *App) listInvites(ctx context.Context, _ []string) error {
	a.accounts.RefreshInvitations(ctx)
	invites := a.accounts.Invitations()
	if len(invites) == 0 {
		fmt.Fprintln(a.out, "No pending invitations")
		return nil
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tACCOUNT\tFROM")
	for _, inv := range invites {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", inv.ID, inv.AccountName, inv.InvitedBy)
	}
	return tw.Flush()
}

func (a *App) accept(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.accounts.AcceptInvitation(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Invitation accepted")
	return nil
}

func (a *App) reject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.accounts.RejectInvitation(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Invitation rejected")
	return nil
}

func (a *App) listNotifications(ctx context.Context, _ []string) error {
	feed := a.notifications.Notifications()
	if len(feed) == 0 {
		fmt.Fprintln(a.out, "No notifications")
		return nil
	}
	tw := a.table()
	for _, n := range feed {
		mark := "*"
		if n.Read {
			mark = ""
		}
		text := n.Title
		if n.Message != "" {
			text += ": " + n.Message
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, n.ID, n.Timestamp.Local().Format("2006-01-02 15:04"), text)
	}
	return tw.Flush()
}

func (a *App) markRead(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return a.notifications.MarkAsRead(ctx, args[0])
}

func (a *App) markAllRead(ctx context.Context, _ []string) error {
	return a.notifications.MarkAllAsRead(ctx)
}

func (a *App) listTransactions(ctx context.Context, _ []string) error {
	ts, err := a.transactions.List(ctx, a.accounts.CurrentAccount().ID)
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		fmt.Fprintln(a.out, "No transactions")
		return nil
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tNOTE")
	for _, t := range ts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date.Format("2006-01-02"), t.Type, t.Amount.StringFixed(2), t.Category, t.Note)
	}
	return tw.Flush()
}

func (a *App) summary(ctx context.Context, _ []string) error {
	s, err := a.transactions.Summary(ctx, a.accounts.CurrentAccount().ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Income %s, expense %s, balance %s\n", s.Income.StringFixed(2), s.Expense.StringFixed(2), s.Balance.StringFixed(2))
	return nil
}

func (a *App) addTransaction(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	if !a.accounts.Can(models.ActionAddEntry) {
		return errors.New("you may not add entries to this account")
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("amount %q is not a number", args[1])
	}
	in := models.TransactionInput{Type: models.TransactionType(args[0]), Amount: amount}
	if len(args) > 2 {
		in.Category = args[2]
	}
	if len(args) > 3 {
		in.Note = strings.Join(args[3:], " ")
	}
	t, err := a.transactions.Create(ctx, a.accounts.CurrentAccount().ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Added", t.ID)
	return nil
}

func (a *App) deleteTransaction(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if !a.accounts.Can(models.ActionDeleteEntry) {
		return errors.New("you may not delete entries in this account")
	}
	return a.transactions.Delete(ctx, a.accounts.CurrentAccount().ID, args[0])
}

func (a *App) refresh(ctx context.Context, _ []string) error {
	a.accounts.RefreshAccounts(ctx)
	a.accounts.RefreshInvitations(ctx)
	a.notifications.RefreshNotifications(ctx)
	if _, err := a.transactions.Refresh(ctx, a.accounts.CurrentAccount().ID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Refreshed")
	return nil
}
