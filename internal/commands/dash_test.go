package commands_test

import (
	"strings"
	"testing"

	"taskdeck/internal/commands"
	"taskdeck/internal/errs"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
)

func TestDashCommand_InitialRenderAndQuit(t *testing.T) {
	svc := testutil.NewFakeService()
	addTasks(svc, 12)
	h := newHarness(t, svc, false).input("q\n")

	code := h.run(t, &commands.DashCmd{})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, h.stderr())
	}
	if !strings.HasPrefix(h.stdout(), "filter: all\n  12  [ ] task 12\n") {
		t.Errorf("unexpected first render %q", h.stdout())
	}
	if !strings.HasSuffix(h.stdout(), "page 1/2 (12 tasks)\n> ") {
		t.Errorf("expected footer and prompt, got %q", h.stdout())
	}
}

func TestDashCommand_Paging(t *testing.T) {
	svc := testutil.NewFakeService()
	addTasks(svc, 12)
	h := newHarness(t, svc, false).input("n\nn\np\n")

	code := h.run(t, &commands.DashCmd{})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if strings.Count(h.stdout(), "page 2/2 (12 tasks)") != 1 {
		t.Errorf("expected one render of page 2, got %q", h.stdout())
	}
	if strings.Count(h.stdout(), "page 1/2 (12 tasks)") != 2 {
		t.Errorf("expected page 1 rendered twice, got %q", h.stdout())
	}
	if h.stderr() != "already on the last page\n" {
		t.Errorf("unexpected stderr %q", h.stderr())
	}
}

func TestDashCommand_FilterAndSearch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("milk", true, 0)
	svc.AddTask("oat milk", false, 0)
	svc.AddTask("bread", true, 0)
	h := newHarness(t, svc, false).input("f completed\ns milk\nq\n")

	code := h.run(t, &commands.DashCmd{})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, h.stderr())
	}
	last := h.stdout()[strings.LastIndex(h.stdout(), "filter:"):]
	expected := "filter: completed  search: \"milk\"\n   1  [x] milk\npage 1/1 (1 task)\n> "
	if last != expected {
		t.Errorf("expected %q, got %q", expected, last)
	}
}

func TestDashCommand_CategoryFilterFromUsedCategories(t *testing.T) {
	svc := testutil.NewFakeService()
	work := svc.AddCategory("Work")
	svc.AddCategory("Home")
	svc.AddTask("report", false, work.ID)
	svc.AddTask("loose", false, 0)
	h := newHarness(t, svc, false).input("c home\nc work\nc none\nq\n")

	code := h.run(t, &commands.DashCmd{})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(h.stderr(), "error: not found: category \"home\"\n") {
		t.Errorf("expected unused category to be rejected, got %q", h.stderr())
	}
	if !strings.Contains(h.stdout(), "filter: all  category: Work\n   1  [ ] report  (Work)\n") {
		t.Errorf("expected category render, got %q", h.stdout())
	}
}

func TestDashCommand_ToggleAddDelete(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("milk", false, 0)
	h := newHarness(t, svc, false).input("t 1\na bread\nd 1\ny\nq\n")

	code := h.run(t, &commands.DashCmd{})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, h.stderr())
	}
	for _, want := range []string{
		"Task marked as completed\n",
		"Task added successfully!\n",
		"Delete task 1 \"milk\"? [y/N]: ",
		"Task deleted successfully!\n",
	} {
		if !strings.Contains(h.stdout(), want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "bread" {
		t.Errorf("expected only bread left, got %+v", tasks)
	}
}

func TestDashCommand_UserErrorsKeepLooping(t *testing.T) {
	svc := testutil.NewFakeService()
	h := newHarness(t, svc, false).input("x\ng 0\nf soon\nt milk\nv 7\nq\n")

	code := h.run(t, &commands.DashCmd{})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "error: unknown command: x (h for help)\n" +
		"error: invalid page number: 0\n" +
		"error: invalid filter: soon (want all, completed or pending)\n" +
		"error: invalid task id: milk\n" +
		"error: task not found: 7\n"
	if h.stderr() != expected {
		t.Errorf("expected %q, got %q", expected, h.stderr())
	}
}

func TestDashCommand_StopsOnExpiredSession(t *testing.T) {
	svc := testutil.NewFakeService()
	calls := 0
	svc.ListTasksHook = func(service.TaskQuery) {
		calls++
		if calls == 3 {
			svc.ListTasksErr = errs.ErrSessionExpired
		}
	}
	h := newHarness(t, svc, false).input("r\nq\n")

	code := h.run(t, &commands.DashCmd{})

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if h.stderr() != "error: session expired (run: taskdeck login)\n" {
		t.Errorf("unexpected stderr %q", h.stderr())
	}
}

func TestDashCommand_EOFLeaves(t *testing.T) {
	h := newHarness(t, testutil.NewFakeService(), false)

	code := h.run(t, &commands.DashCmd{})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasSuffix(h.stdout(), "no tasks found\n> \n") {
		t.Errorf("unexpected stdout %q", h.stdout())
	}
}
