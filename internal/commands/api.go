package commands

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

// Census scales requested by the nation command.
const (
	scaleCivilRights      = 0
	scaleEconomy          = 1
	scalePoliticalFreedom = 2
	scaleInfluence        = 65
	scaleEndorsements     = 66
	scaleResidency        = 80
)

const (
	waMember   = "WA Member"
	waDelegate = "WA Delegate"
)

type nationXML struct {
	XMLName      xml.Name `xml:"NATION"`
	ID           string   `xml:"id,attr"`
	Name         string   `xml:"NAME"`
	FullName     string   `xml:"FULLNAME"`
	Flag         string   `xml:"FLAG"`
	WAStatus     string   `xml:"UNSTATUS"`
	GAVote       string   `xml:"GAVOTE"`
	SCVote       string   `xml:"SCVOTE"`
	Demonym      string   `xml:"DEMONYM2PLURAL"`
	Category     string   `xml:"CATEGORY"`
	Population   float64  `xml:"POPULATION"`
	Region       string   `xml:"REGION"`
	Founded      string   `xml:"FOUNDED"`
	FoundedTime  int64    `xml:"FOUNDEDTIME"`
	Influence    string   `xml:"INFLUENCE"`
	LastActivity string   `xml:"LASTACTIVITY"`
	Endorsements string   `xml:"ENDORSEMENTS"`
	Freedom      struct {
		CivilRights      string `xml:"CIVILRIGHTS"`
		Economy          string `xml:"ECONOMY"`
		PoliticalFreedom string `xml:"POLITICALFREEDOM"`
	} `xml:"FREEDOM"`
	Census []censusScale `xml:"CENSUS>SCALE"`
}

type censusScale struct {
	ID    int     `xml:"id,attr"`
	Score float64 `xml:"SCORE"`
}

// score returns the score of a census scale and whether it was present.
func (n *nationXML) score(id int) (float64, bool) {
	for _, s := range n.Census {
		if s.ID == id {
			return s.Score, true
		}
	}
	return 0, false
}

func (n *nationXML) inWA() bool {
	return n.WAStatus == waMember || n.WAStatus == waDelegate
}

type regionXML struct {
	XMLName       xml.Name     `xml:"REGION"`
	ID            string       `xml:"id,attr"`
	Name          string       `xml:"NAME"`
	Flag          string       `xml:"FLAG"`
	NumNations    int          `xml:"NUMNATIONS"`
	Delegate      string       `xml:"DELEGATE"`
	DelegateVotes int          `xml:"DELEGATEVOTES"`
	Founder       string       `xml:"FOUNDER"`
	Power         string       `xml:"POWER"`
	Founded       string       `xml:"FOUNDED"`
	WANations     string       `xml:"UNNATIONS"`
	Officers      []officerXML `xml:"OFFICERS>OFFICER"`
}

type officerXML struct {
	Nation string `xml:"NATION"`
	Office string `xml:"OFFICE"`
}

// office returns the office held by nation, or "".
func (r *regionXML) office(nation string) string {
	id := ToID(nation)
	for _, o := range r.Officers {
		if ToID(o.Nation) == id {
			return o.Office
		}
	}
	return ""
}

func nationStatsQuery(id string) string {
	return fmt.Sprintf("nation=%s&q=flag+wa+gavote+scvote+fullname+freedom+demonym2plural+category+population+region+founded+foundedtime+influence+lastactivity+census;mode=score;scale=%s",
		url.QueryEscape(id), strings.Join([]string{"0", "1", "2", "65", "66", "80"}, "+"))
}

func officersQuery(region string) string {
	return "region=" + url.QueryEscape(ToID(region)) + "&q=officers"
}

func regionStatsQuery(id string) string {
	return "region=" + url.QueryEscape(id) + "&q=name+flag+numnations+delegate+delegatevotes+founder+power+founded+wanations"
}

func endorsementsQuery(id string) string {
	return "nation=" + url.QueryEscape(id) + "&q=name+wa+region+endorsements"
}

func waNationsQuery(region string) string {
	return "region=" + url.QueryEscape(ToID(region)) + "&q=wanations"
}
