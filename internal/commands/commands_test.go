package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"cyborgian/internal/apperr"
	"cyborgian/internal/command"
	"cyborgian/internal/config"
	"cyborgian/internal/message"
	"cyborgian/internal/request"
	"cyborgian/internal/response"
	"cyborgian/internal/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher answers requests synchronously from canned bodies.
// Queries without an answer stay pending.
type fakeDispatcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	failures map[string]string
	queries  []string
}

func (d *fakeDispatcher) Dispatch(r *request.Request, _ int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, r.Query)
	if reason, ok := d.failures[r.Query]; ok {
		_ = r.Fail(reason)
		return
	}
	if body, ok := d.bodies[r.Query]; ok {
		_ = r.Complete([]byte(body))
	}
}

type recordingChannel struct {
	sent []*response.Response
}

func (c *recordingChannel) ReplyTo(_ context.Context, _ *message.Message, r *response.Response, _ bool) error {
	c.sent = append(c.sent, r)
	return nil
}

func (c *recordingChannel) Write(_ context.Context, r *response.Response) error {
	c.sent = append(c.sent, r)
	return nil
}

type fakeCounter struct {
	counts []storage.CommandCount
}

func (f *fakeCounter) CommandCounts(context.Context) ([]storage.CommandCount, error) {
	return f.counts, nil
}

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{Locale: "en-US", SeparatorChar: "$", Contact: "admin@example.com"}
}

func newRegistry(t *testing.T, d *fakeDispatcher) *command.Registry {
	t.Helper()
	reg := command.NewRegistry()
	deps := Deps{
		Config:     testConfig(),
		Dispatcher: d,
		Commands:   reg,
		Usage:      &fakeCounter{counts: []storage.CommandCount{{Command: "nation", Count: 1200}, {Command: "ping", Count: 3}}},
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return testNow },
	}
	for _, desc := range Descriptors(deps) {
		require.NoError(t, reg.Register(desc))
	}
	return reg
}

func run(t *testing.T, reg *command.Registry, content string) (*response.Response, *recordingChannel) {
	t.Helper()
	ch := &recordingChannel{}
	resp, err := reg.Execute(context.Background(), message.NewText("u1", content, ch))
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp, ch
}

func fields(r *response.Response) map[string]string {
	out := make(map[string]string)
	for _, f := range r.Embed().Fields {
		out[f.Name] = f.Value
	}
	return out
}

const testlandiaXML = `<NATION id="testlandia">
<FLAG>https://www.nationstates.net/images/flags/testlandia.svg</FLAG>
<UNSTATUS>WA Member</UNSTATUS>
<GAVOTE>FOR</GAVOTE>
<SCVOTE>AGAINST</SCVOTE>
<FULLNAME>The Hive Mind of Testlandia</FULLNAME>
<FREEDOM><CIVILRIGHTS>Excellent</CIVILRIGHTS><ECONOMY>Powerhouse</ECONOMY><POLITICALFREEDOM>Superb</POLITICALFREEDOM></FREEDOM>
<DEMONYM2PLURAL>Testlandians</DEMONYM2PLURAL>
<CATEGORY>Civil Rights Lovefest</CATEGORY>
<POPULATION>1500</POPULATION>
<REGION>Testregionia</REGION>
<FOUNDED>10 years ago</FOUNDED>
<FOUNDEDTIME>1400000000</FOUNDEDTIME>
<INFLUENCE>Zealot</INFLUENCE>
<LASTACTIVITY>2 hours ago</LASTACTIVITY>
<CENSUS>
<SCALE id="0"><SCORE>78.25</SCORE></SCALE>
<SCALE id="1"><SCORE>90.1</SCORE></SCALE>
<SCALE id="2"><SCORE>70</SCORE></SCALE>
<SCALE id="65"><SCORE>1234.5</SCORE></SCALE>
<SCALE id="66"><SCORE>12</SCORE></SCALE>
<SCALE id="80"><SCORE>740.5</SCORE></SCALE>
</CENSUS>
</NATION>`

const officersXML = `<REGION id="testregionia"><OFFICERS>
<OFFICER><NATION>someone_else</NATION><OFFICE>Minister</OFFICE></OFFICER>
<OFFICER><NATION>testlandia</NATION><OFFICE>Chancellor</OFFICE></OFFICER>
</OFFICERS></REGION>`

func TestPing(t *testing.T) {
	reg := newRegistry(t, &fakeDispatcher{})
	resp, _ := run(t, reg, "ping")
	assert.Equal(t, "Pong !", resp.Content())
	assert.True(t, resp.IsSuccess())
}

func TestAbout(t *testing.T) {
	reg := newRegistry(t, &fakeDispatcher{})
	resp, _ := run(t, reg, "about")
	require.True(t, resp.HasEmbed())
	assert.Equal(t, "About CyborgianStates", resp.Embed().Title)
	f := fields(resp)
	assert.Equal(t, "admin@example.com", f["Contact for this instance"])
	assert.Equal(t, "[CyborgianStates](https://github.com/Free-Nations-Region/CyborgianStates)", f["Github"])
	assert.Equal(t, "via [OpenCollective](https://opencollective.com/fnr)", f["Support"])
	assert.Equal(t, testConfig().Footer(), resp.Embed().Footer.Text)
	assert.Equal(t, response.DefaultColor, resp.Embed().Color)
}

func TestNation(t *testing.T) {
	d := &fakeDispatcher{bodies: map[string]string{
		nationStatsQuery("testlandia"):  testlandiaXML,
		officersQuery("Testregionia"): officersXML,
	}}
	reg := newRegistry(t, d)
	resp, _ := run(t, reg, "n Testlandia")

	require.True(t, resp.IsSuccess())
	e := resp.Embed()
	assert.Equal(t, "The Hive Mind of Testlandia", e.Title)
	assert.Equal(t, "https://www.nationstates.net/nation=testlandia", e.URL)
	assert.Equal(t, "https://www.nationstates.net/images/flags/testlandia.svg", e.Thumbnail.URL)
	assert.Equal(t, "1.5 billion Testlandians | Last active 2 hours ago", e.Description)

	want := map[string]string{
		"Founded":               "13.05.2014 (10 years ago)",
		"Region":                "[Testregionia](https://www.nationstates.net/region=testregionia)",
		"Regional Officer":      "Chancellor",
		"Resident Since":        "31.12.2021 (2 y 10 d)",
		"Civil Rights Lovefest": "C: Excellent (78.25) | E: Powerhouse (90.1) | P: Superb (70)",
		"WA Member":             "12 endorsements | 1,234.5 Influence (Zealot)",
		"WA Vote":               "GA: FOR | SC: AGAINST",
		"Links":                 "[Dispatches](https://www.nationstates.net/page=dispatches/nation=testlandia)  |  [Cards Deck](https://www.nationstates.net/page=deck/nation=testlandia)  |  [Challenge](https://www.nationstates.net/page=challenge?entity_name=testlandia)",
	}
	if diff := cmp.Diff(want, fields(resp)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	for _, f := range e.Fields {
		if f.Name == "Resident Since" {
			assert.False(t, f.Inline, "officers push residency to its own line")
		}
	}
	assert.Equal(t, []string{nationStatsQuery("testlandia"), officersQuery("Testregionia")}, d.queries)
}

func TestNationSmallPopulationNonMember(t *testing.T) {
	body := strings.NewReplacer(
		"<POPULATION>1500</POPULATION>", "<POPULATION>250</POPULATION>",
		"<UNSTATUS>WA Member</UNSTATUS>", "<UNSTATUS>Non-member</UNSTATUS>",
	).Replace(testlandiaXML)
	d := &fakeDispatcher{bodies: map[string]string{
		nationStatsQuery("testlandia"):  body,
		officersQuery("Testregionia"): `<REGION id="testregionia"><OFFICERS></OFFICERS></REGION>`,
	}}
	resp, _ := run(t, newRegistry(t, d), "nation testlandia")

	assert.True(t, strings.HasPrefix(resp.Embed().Description, "250 million Testlandians"))
	f := fields(resp)
	assert.Equal(t, "1,234.5 Influence (Zealot)", f["Non-member"])
	assert.NotContains(t, f, "WA Vote")
	assert.NotContains(t, f, "Regional Officer")
}

func TestNationWithoutParameter(t *testing.T) {
	resp, _ := run(t, newRegistry(t, &fakeDispatcher{}), "nation")
	assert.Equal(t, response.Error, resp.Status())
	assert.Equal(t, "That didn't work.", resp.Embed().Title)
	assert.Equal(t, apperr.MsgNoParameter, resp.Embed().Description)
}

func TestNationUpstreamFailure(t *testing.T) {
	d := &fakeDispatcher{failures: map[string]string{nationStatsQuery("nobody"): "HTTP 404: Not Found"}}
	resp, _ := run(t, newRegistry(t, d), "nation nobody")
	assert.Equal(t, response.Error, resp.Status())
	assert.Equal(t, "HTTP 404: Not Found", resp.Embed().Description)
}

func TestNationBrokenPayloadIsUnexpected(t *testing.T) {
	d := &fakeDispatcher{bodies: map[string]string{nationStatsQuery("testlandia"): "<NATION><FOUNDEDTIME>soon</FOUNDEDTIME></NATION>"}}
	reg := newRegistry(t, d)
	_, err := reg.Execute(context.Background(), message.NewText("u1", "nation testlandia", &recordingChannel{}))
	assert.Error(t, err)
	assert.False(t, apperr.Expected(err))
}

func TestNationCanceled(t *testing.T) {
	reg := newRegistry(t, &fakeDispatcher{})
	done := make(chan *response.Response, 1)
	go func() {
		resp, err := reg.Execute(context.Background(), message.NewText("u1", "nation testlandia", &recordingChannel{}))
		assert.NoError(t, err)
		done <- resp
	}()
	time.Sleep(20 * time.Millisecond)
	reg.Cancel()

	select {
	case resp := <-done:
		assert.Equal(t, response.Error, resp.Status())
		assert.Equal(t, apperr.MsgCanceled, resp.Embed().Description)
	case <-time.After(time.Second):
		t.Fatal("nation did not observe cancellation")
	}
}

func TestNationInteractionDefers(t *testing.T) {
	d := &fakeDispatcher{bodies: map[string]string{
		nationStatsQuery("testlandia"):  testlandiaXML,
		officersQuery("Testregionia"): officersXML,
	}}
	reg := newRegistry(t, d)
	it := &fakeInteraction{opts: []message.Option{{Name: "name", Value: "Testlandia"}}}
	resp, err := reg.Execute(context.Background(), message.NewInteraction("u1", "nation", &recordingChannel{}, it))
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, 1, it.deferred)
}

type fakeInteraction struct {
	opts      []message.Option
	deferred  int
	edits     []string
	followups []string
}

func (i *fakeInteraction) Defer(context.Context) error { i.deferred++; return nil }
func (i *fakeInteraction) Respond(context.Context, *response.Response, bool) error {
	return nil
}
func (i *fakeInteraction) ModifyOriginalResponse(_ context.Context, r *response.Response) error {
	i.edits = append(i.edits, r.Embed().Description)
	return nil
}
func (i *fakeInteraction) FollowUp(_ context.Context, r *response.Response) error {
	i.followups = append(i.followups, r.Embed().Description)
	return nil
}
func (i *fakeInteraction) HasResponded() bool        { return i.deferred > 0 }
func (i *fakeInteraction) Options() []message.Option { return i.opts }

func TestRegion(t *testing.T) {
	d := &fakeDispatcher{bodies: map[string]string{
		regionStatsQuery("the_free_nations_region"): `<REGION id="the_free_nations_region">
<NAME>The Free Nations Region</NAME>
<FLAG>https://www.nationstates.net/images/flags/uploads/rflags/tfnr.png</FLAG>
<NUMNATIONS>1523</NUMNATIONS>
<DELEGATE>greenerica</DELEGATE>
<DELEGATEVOTES>187</DELEGATEVOTES>
<FOUNDER>0</FOUNDER>
<POWER>Very High</POWER>
<FOUNDED>Antiquity</FOUNDED>
<UNNATIONS>greenerica,testlandia,olvaria</UNNATIONS>
</REGION>`,
	}}
	resp, _ := run(t, newRegistry(t, d), "r The Free Nations Region")

	e := resp.Embed()
	assert.Equal(t, "The Free Nations Region", e.Title)
	assert.Equal(t, "https://www.nationstates.net/region=the_free_nations_region", e.URL)
	assert.Equal(t, "1,523 nations | 3 WA members", e.Description)
	want := map[string]string{
		"Founded":     "Antiquity",
		"Power":       "Very High",
		"Founder":     "None",
		"WA Delegate": "[greenerica](https://www.nationstates.net/nation=greenerica) | 187 votes",
	}
	if diff := cmp.Diff(want, fields(resp)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEndorsable(t *testing.T) {
	got := endorsable("Testlandia", []string{"olvaria"}, []string{"greenerica", "testlandia", "olvaria", "new_nation"})
	assert.Equal(t, []string{"greenerica", "new_nation"}, got)
	assert.Empty(t, endorsable("a", nil, []string{"a"}))
}

func TestEndorsableNotWAMember(t *testing.T) {
	d := &fakeDispatcher{bodies: map[string]string{
		endorsementsQuery("testlandia"): `<NATION id="testlandia"><NAME>Testlandia</NAME><UNSTATUS>Non-member</UNSTATUS><REGION>Testregionia</REGION><ENDORSEMENTS></ENDORSEMENTS></NATION>`,
	}}
	resp, _ := run(t, newRegistry(t, d), "ce testlandia")
	assert.Equal(t, response.Error, resp.Status())
	assert.Equal(t, msgNotWAMember, resp.Embed().Description)
}

func TestEndorsableChunksLongLists(t *testing.T) {
	var wa []string
	for i := 0; i < 200; i++ {
		wa = append(wa, fmt.Sprintf("nation_number_%03d", i))
	}
	d := &fakeDispatcher{bodies: map[string]string{
		endorsementsQuery("testlandia"): `<NATION id="testlandia"><NAME>Testlandia</NAME><UNSTATUS>WA Delegate</UNSTATUS><REGION>Testregionia</REGION><ENDORSEMENTS>nation_number_000</ENDORSEMENTS></NATION>`,
		waNationsQuery("Testregionia"):  `<REGION id="testregionia"><UNNATIONS>testlandia,` + strings.Join(wa, ",") + `</UNNATIONS></REGION>`,
	}}
	last, ch := run(t, newRegistry(t, d), "ce testlandia")

	all := append(append([]*response.Response(nil), ch.sent...), last)
	require.Greater(t, len(all), 1)
	var links []string
	for _, r := range all {
		e := r.Embed()
		assert.Equal(t, "Testlandia could endorse 199 more nations.", e.Title)
		assert.LessOrEqual(t, len(e.Description), 4096)
		links = append(links, strings.Split(e.Description, ", ")...)
	}
	require.Len(t, links, 199)
	assert.Equal(t, "[nation number 001](https://www.nationstates.net/nation=nation_number_001)", links[0])
}

func TestEndorsableInteractionChunksFollowUp(t *testing.T) {
	var wa []string
	for i := 0; i < 200; i++ {
		wa = append(wa, fmt.Sprintf("nation_number_%03d", i))
	}
	d := &fakeDispatcher{bodies: map[string]string{
		endorsementsQuery("testlandia"): `<NATION id="testlandia"><NAME>Testlandia</NAME><UNSTATUS>WA Member</UNSTATUS><REGION>Testregionia</REGION><ENDORSEMENTS></ENDORSEMENTS></NATION>`,
		waNationsQuery("Testregionia"):  `<REGION id="testregionia"><UNNATIONS>` + strings.Join(wa, ",") + `</UNNATIONS></REGION>`,
	}}
	ch := &recordingChannel{}
	it := &fakeInteraction{opts: []message.Option{{Name: "nation", Value: "Testlandia"}}}
	m := message.NewInteraction("u1", "endorsable", ch, it)

	last, err := newRegistry(t, d).Execute(context.Background(), m)
	require.NoError(t, err)

	assert.Empty(t, ch.sent)
	assert.Equal(t, 1, it.deferred)
	require.Len(t, it.edits, 1)
	require.NotEmpty(t, it.followups)
	assert.True(t, strings.HasPrefix(it.edits[0], "[nation number 000]"))
	assert.Equal(t, last.Embed().Description, it.followups[len(it.followups)-1])
	assert.True(t, m.HasResponded())
}

func TestHelp(t *testing.T) {
	resp, _ := run(t, newRegistry(t, &fakeDispatcher{}), "help")
	desc := resp.Embed().Description
	info := strings.Index(desc, "**"+config.CategoryInformation+"**")
	ns := strings.Index(desc, "**"+config.CategoryNationStates+"**")
	maint := strings.Index(desc, "**"+config.CategoryMaintenance+"**")
	assert.True(t, info >= 0 && info < ns && ns < maint, desc)
	assert.Contains(t, desc, "`$nation`, `$n` - Get some cool info about a NationStates nation")
}

func TestHelpLinesWithoutCategory(t *testing.T) {
	lines := helpLines([]*command.Descriptor{{Triggers: []string{"x"}}}, "!")
	assert.Equal(t, []string{"**Other**", "`!x`"}, lines)
}

func TestStats(t *testing.T) {
	resp, _ := run(t, newRegistry(t, &fakeDispatcher{}), "stats")
	assert.Equal(t, "`nation`: 1,200\n`ping`: 3", resp.Embed().Description)
}

func TestSlashNamesResolve(t *testing.T) {
	reg := newRegistry(t, &fakeDispatcher{})
	for _, d := range reg.Descriptors() {
		if d.Slash == nil {
			continue
		}
		c, err := reg.Resolve(d.Slash.Name)
		require.NoError(t, err)
		assert.NotNil(t, c, d.Slash.Name)
		for _, p := range d.Slash.Params {
			assert.Equal(t, discordgo.ApplicationCommandOptionString, p.Type)
		}
	}
}

func TestToID(t *testing.T) {
	assert.Equal(t, "the_free_nations_region", ToID("  The Free Nations Region "))
	assert.Equal(t, "testlandia", ToID("Testlandia"))
}

func TestQueriesEscapeNames(t *testing.T) {
	id := ToID("foo&q=bar#x")
	for _, q := range []string{
		endorsementsQuery(id),
		regionStatsQuery(id),
		officersQuery(id),
		waNationsQuery(id),
	} {
		v, err := url.ParseQuery(q)
		require.NoError(t, err, q)
		assert.Len(t, v["q"], 1, q)
		assert.Equal(t, id, v.Get("nation")+v.Get("region"), q)
	}
	assert.True(t, strings.HasPrefix(nationStatsQuery(id), "nation=foo%26q%3Dbar%23x&q="))
}

func TestPlainBuilder(t *testing.T) {
	reg := command.NewRegistry()
	for _, d := range Descriptors(Deps{Config: testConfig(), NewBuilder: response.NewPlain, Commands: reg}) {
		require.NoError(t, reg.Register(d))
	}
	resp, _ := run(t, reg, "nation")
	assert.False(t, resp.HasEmbed())
	assert.Contains(t, resp.Content(), "That didn't work.")
}
