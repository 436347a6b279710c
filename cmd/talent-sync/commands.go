package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"talent-sync/internal/api"
	"talent-sync/internal/app"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/models"
	"talent-sync/internal/slices/messages"
	"talent-sync/internal/store"
)

var errUsage = stderrors.New("usage")

type env struct {
	app    *app.App
	out    io.Writer
	errOut io.Writer
	log    logger.Logger
}

type command struct {
	name      string
	args      string
	summary   string
	needsAuth bool
	run       func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"login", "-email E -password P", "sign in and store the session", false, runLogin},
	{"register-student", "-email E -password P -first F -last L", "create a student account", false, runRegisterStudent},
	{"register-business", "-email E -password P -company C", "create a business account", false, runRegisterBusiness},
	{"logout", "", "forget the stored session", false, runLogout},
	{"whoami", "", "show the signed-in user", true, runWhoami},
	{"feed", "", "talent feed with your likes and saves marked", true, runFeed},
	{"talents", "[-student ID]", "list all talents, or one student's", true, runTalents},
	{"add-talent", "-title T -category C [-description D] [files...]", "publish a talent", true, runAddTalent},
	{"delete-talent", "ID", "delete one of your talents", true, runDeleteTalent},
	{"like", "TALENT_ID", "like a talent", true, runLike},
	{"save", "TALENT_ID", "bookmark a talent", true, runSave},
	{"collab", "TALENT_ID [-message M]", "ask for a collaboration", true, runCollab},
	{"liked", "", "list liked talents", true, runLiked},
	{"saved", "", "list saved talents", true, runSaved},
	{"conversations", "", "list conversations", true, runConversations},
	{"messages", "CONVERSATION_ID", "show a conversation", true, runMessages},
	{"send", "CONVERSATION_ID TEXT...", "send a message", true, runSend},
	{"start-chat", "USER_ID", "open a conversation with a user", true, runStartChat},
	{"follow", "USER_ID", "follow a user", true, runFollow},
	{"unfollow", "USER_ID", "stop following a user", true, runUnfollow},
	{"follow-status", "USER_ID", "check whether you follow a user", true, runFollowStatus},
	{"followers", "USER_ID", "list a user's followers", true, runFollowers},
	{"following", "USER_ID", "list who a user follows", true, runFollowing},
	{"jobs", "", "list open jobs", true, runJobs},
	{"apply", "JOB_ID [-cover TEXT]", "apply to a job", true, runApply},
	{"applications", "[-job ID]", "list your applications, or a job's", true, runApplications},
	{"set-status", "APPLICATION_ID STATUS", "accept or reject an application", true, runSetStatus},
	{"watch", "", "stream incoming messages until interrupted", true, runWatch},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: talent-sync [-config FILE] COMMAND [ARGS]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s %s\t%s\n", c.name, c.args, c.summary)
	}
	tw.Flush()
}

func newFlags(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	return fs
}

// positional returns exactly n positional args or errUsage.
func positional(e *env, name string, args []string, n int) ([]string, error) {
	if len(args) < n {
		fmt.Fprintf(e.errOut, "%s: expected %d argument(s)\n", name, n)
		return nil, errUsage
	}
	return args, nil
}

// ==========================
// Identity
// ==========================

func runLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := e.app.Login(ctx, models.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Signed in as %s (%s)\n", result.User.FullName(), result.User.Role)
	return nil
}

func runRegisterStudent(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "register-student")
	var in models.StudentRegistration
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Password, "password", "", "account password")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	fs.StringVar(&in.Major, "major", "", "major")
	fs.IntVar(&in.Year, "year", 0, "study year")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := e.app.RegisterStudent(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Welcome, %s\n", result.User.FullName())
	return nil
}

func runRegisterBusiness(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "register-business")
	var in models.BusinessRegistration
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Password, "password", "", "account password")
	fs.StringVar(&in.FirstName, "first", "", "contact first name")
	fs.StringVar(&in.LastName, "last", "", "contact last name")
	fs.StringVar(&in.CompanyName, "company", "", "company name")
	fs.StringVar(&in.Industry, "industry", "", "industry")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := e.app.RegisterBusiness(ctx, in); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Welcome, %s\n", in.CompanyName)
	return nil
}

func runLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Signed out")
	return nil
}

func runWhoami(_ context.Context, e *env, _ []string) error {
	user, err := e.app.CurrentUser()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", user.ID)
	fmt.Fprintf(tw, "name\t%s\n", user.FullName())
	fmt.Fprintf(tw, "email\t%s\n", user.Email)
	fmt.Fprintf(tw, "role\t%s\n", user.Role)
	if id := user.ProfileID(); id != "" {
		fmt.Fprintf(tw, "profile\t%s\n", id)
	}
	return tw.Flush()
}

// ==========================
// Talents
// ==========================

func printTalents(w io.Writer, list []models.Talent) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No talents")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tFILES")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", t.ID, t.Title, t.Category, len(t.Files))
	}
	return tw.Flush()
}

func runTalents(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "talents")
	studentID := fs.String("student", "", "only this student's talents")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *studentID != "" {
		if err := e.app.FetchStudentTalents(ctx, *studentID); err != nil {
			return err
		}
		return printTalents(e.out, e.app.State().Talents.ByStudent[*studentID])
	}
	if err := e.app.FetchAllTalents(ctx); err != nil {
		return err
	}
	return printTalents(e.out, e.app.State().Talents.Talents)
}

// runFeed shows every talent, marking the ones the signed-in student liked
// or saved. Business users get the plain list.
func runFeed(ctx context.Context, e *env, _ []string) error {
	if err := e.app.FetchAllTalents(ctx); err != nil {
		return err
	}
	me, _ := e.app.CurrentUser()
	if me.Role == models.RoleStudent {
		_ = e.app.FetchLikedTalents(ctx)
		_ = e.app.FetchSavedTalents(ctx)
	}

	state := e.app.State().Talents
	liked := idSet(state.Liked)
	saved := idSet(state.Saved)
	if len(state.Talents) == 0 {
		fmt.Fprintln(e.out, "No talents")
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tLIKED\tSAVED")
	for _, t := range state.Talents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Category, mark(liked[t.ID]), mark(saved[t.ID]))
	}
	return tw.Flush()
}

func idSet(list []models.Talent) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, t := range list {
		out[t.ID] = true
	}
	return out
}

func mark(on bool) string {
	if on {
		return "*"
	}
	return ""
}

func runAddTalent(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "add-talent")
	var in models.TalentInput
	fs.StringVar(&in.Title, "title", "", "title")
	fs.StringVar(&in.Category, "category", "", "category")
	fs.StringVar(&in.Description, "description", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in.Files = fs.Args()

	files, closeFiles, err := api.OpenFiles(in.Files)
	if err != nil {
		return err
	}
	defer closeFiles()

	talent, err := e.app.AddTalent(ctx, in, files)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Published %s (%s)\n", talent.Title, talent.ID)
	return nil
}

func runDeleteTalent(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "delete-talent", args, 1)
	if err != nil {
		return err
	}
	if err := e.app.DeleteTalent(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Deleted %s\n", args[0])
	return nil
}

func runLike(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "like", args, 1)
	if err != nil {
		return err
	}
	if err := e.app.LikeTalent(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Liked %s\n", args[0])
	return nil
}

func runSave(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "save", args, 1)
	if err != nil {
		return err
	}
	if err := e.app.SaveTalent(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Saved %s\n", args[0])
	return nil
}

func runCollab(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "collab", args, 1)
	if err != nil {
		return err
	}
	fs := newFlags(e, "collab")
	message := fs.String("message", "", "note for the talent owner")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if err := e.app.RequestCollaboration(ctx, args[0], *message); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Collaboration requested for %s\n", args[0])
	return nil
}

func runLiked(ctx context.Context, e *env, _ []string) error {
	if err := e.app.FetchLikedTalents(ctx); err != nil {
		return err
	}
	return printTalents(e.out, e.app.State().Talents.Liked)
}

func runSaved(ctx context.Context, e *env, _ []string) error {
	if err := e.app.FetchSavedTalents(ctx); err != nil {
		return err
	}
	return printTalents(e.out, e.app.State().Talents.Saved)
}

// ==========================
// Messages
// ==========================

func runConversations(ctx context.Context, e *env, _ []string) error {
	if err := e.app.FetchConversations(ctx); err != nil {
		return err
	}
	me, _ := e.app.CurrentUser()
	list := e.app.State().Messages.Conversations
	if len(list) == 0 {
		fmt.Fprintln(e.out, "No conversations")
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWITH\tLAST MESSAGE")
	for _, c := range list {
		with := ""
		if other := c.OtherParticipant(me.ID); other != nil {
			with = other.FullName()
		}
		last := ""
		if c.LastMessage != nil {
			last = c.LastMessage.Content
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, with, last)
	}
	return tw.Flush()
}

func printMessage(w io.Writer, me string, m models.Message) {
	who := m.SenderID
	if who == me {
		who = "you"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", m.CreatedAt, who, m.Content)
}

func runMessages(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "messages", args, 1)
	if err != nil {
		return err
	}
	if err := e.app.FetchMessages(ctx, args[0]); err != nil {
		return err
	}
	me, _ := e.app.CurrentUser()
	for _, m := range e.app.State().Messages.Messages[args[0]] {
		printMessage(e.out, me.ID, m)
	}
	return nil
}

func runSend(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "send", args, 2)
	if err != nil {
		return err
	}
	msg, err := e.app.SendMessage(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Sent %s\n", msg.ID)
	return nil
}

func runStartChat(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "start-chat", args, 1)
	if err != nil {
		return err
	}
	conv, err := e.app.StartConversation(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, conv.ID)
	return nil
}

// runWatch keeps the realtime feed open and prints every delivered message.
func runWatch(ctx context.Context, e *env, _ []string) error {
	if !e.app.RealtimeEnabled() {
		return fmt.Errorf("realtime is disabled, set realtime.enabled in the config")
	}
	me, _ := e.app.CurrentUser()
	if err := e.app.FetchConversations(ctx); err != nil {
		e.log.Warn("Could not prefetch conversations", map[string]interface{}{"error": err.Error()})
	}

	unsubscribe := e.app.Subscribe(func(_ app.RootState, action store.Action) {
		if action.Type != messages.MessageReceivedType {
			return
		}
		if msg, ok := store.PayloadAs[models.Message](action); ok {
			printMessage(e.out, me.ID, msg)
		}
	})
	defer unsubscribe()

	fmt.Fprintln(e.errOut, "Watching for messages, press Ctrl+C to stop")
	return e.app.StartRealtime(ctx)
}

// ==========================
// Follows
// ==========================

func printUsers(w io.Writer, users []models.User) error {
	if len(users) == 0 {
		fmt.Fprintln(w, "Nobody yet")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.FullName(), u.Role)
	}
	return tw.Flush()
}

func runFollow(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "follow", args, 1)
	if err != nil {
		return err
	}
	if err := e.app.Follow(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Following %s\n", args[0])
	return nil
}

func runUnfollow(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "unfollow", args, 1)
	if err != nil {
		return err
	}
	if err := e.app.Unfollow(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Unfollowed %s\n", args[0])
	return nil
}

func runFollowStatus(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "follow-status", args, 1)
	if err != nil {
		return err
	}
	me, err := e.app.CurrentUser()
	if err != nil {
		return err
	}
	following, err := e.app.CheckFollowStatus(ctx, me.ID, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, following)
	return nil
}

func runFollowers(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "followers", args, 1)
	if err != nil {
		return err
	}
	if err := e.app.FetchFollowers(ctx, args[0]); err != nil {
		return err
	}
	return printUsers(e.out, e.app.State().Follows.Followers[args[0]])
}

func runFollowing(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "following", args, 1)
	if err != nil {
		return err
	}
	if err := e.app.FetchFollowing(ctx, args[0]); err != nil {
		return err
	}
	return printUsers(e.out, e.app.State().Follows.Following[args[0]])
}

// ==========================
// Jobs and applications
// ==========================

func runJobs(ctx context.Context, e *env, _ []string) error {
	result, err := e.app.API().ListJobs(ctx)
	if err != nil {
		return err
	}
	jobs := result.OrEmpty()
	if len(jobs) == 0 {
		fmt.Fprintln(e.out, "No jobs")
		return nil
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLOCATION\tTYPE")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, j.Title, j.Location, j.Type)
	}
	return tw.Flush()
}

func printApplications(w io.Writer, list []models.Application) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No applications")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tJOB\tSTUDENT\tSTATUS")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.JobID, a.StudentID, a.Status)
	}
	return tw.Flush()
}

func runApply(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "apply", args, 1)
	if err != nil {
		return err
	}
	fs := newFlags(e, "apply")
	cover := fs.String("cover", "", "cover letter")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	application, err := e.app.ApplyToJob(ctx, args[0], *cover)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Applied (%s, %s)\n", application.ID, application.Status)
	return nil
}

func runApplications(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "applications")
	jobID := fs.String("job", "", "list the applications for this job instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *jobID != "" {
		if err := e.app.FetchJobApplications(ctx, *jobID); err != nil {
			return err
		}
		return printApplications(e.out, e.app.State().Applications.Applications)
	}
	if err := e.app.FetchMyApplications(ctx); err != nil {
		return err
	}
	return printApplications(e.out, e.app.State().Applications.Applications)
}

func runSetStatus(ctx context.Context, e *env, args []string) error {
	args, err := positional(e, "set-status", args, 2)
	if err != nil {
		return err
	}
	status := models.ApplicationStatus(strings.ToUpper(args[1]))
	application, err := e.app.UpdateApplicationStatus(ctx, args[0], status)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s is now %s\n", application.ID, application.Status)
	return nil
}
